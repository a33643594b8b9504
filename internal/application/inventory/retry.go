package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/pkg/logger"
)

// RetryPolicy reintentos locales ante conflictos de serialización.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy 3 intentos con 10ms de espera creciente.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 10 * time.Millisecond}
}

// RunInTx ejecuta fn en una transacción y la repite mientras el error sea reintentable.
// Agotados los intentos devuelve domain.ErrConcurrentModificationRetryExhausted.
func RunInTx(ctx context.Context, tx TxRunner, policy RetryPolicy, log *logger.Logger, fn func(repos Repositories) error) error {
	if log == nil {
		log = logger.Nop()
	}
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = tx.Run(ctx, fn)
		if err == nil || !domain.IsRetryable(err) {
			return err
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("conflicto de concurrencia, reintentando transacción")
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.Backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%w (%d intentos): %v", domain.ErrConcurrentModificationRetryExhausted, attempts, err)
}
