package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/application/purchasing"
	"github.com/jhoicas/retail-stock/internal/application/usecase"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
	"github.com/jhoicas/retail-stock/internal/infrastructure/access"
	"github.com/jhoicas/retail-stock/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/retail-stock/internal/infrastructure/pdf"
	"github.com/jhoicas/retail-stock/internal/infrastructure/postgres"
	"github.com/jhoicas/retail-stock/internal/infrastructure/sqlite"
	httpRouter "github.com/jhoicas/retail-stock/internal/interfaces/http"
	"github.com/jhoicas/retail-stock/pkg/config"
	"github.com/jhoicas/retail-stock/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// storage repositorios fuera de transacción más la unidad de trabajo del driver elegido.
type storage struct {
	tx       inventory.TxRunner
	stores   repository.StoreRepository
	products repository.ProductRepository
	access   repository.StoreAccessRepository
	close    func()
}

func openStorage(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*storage, error) {
	if cfg.Driver == config.DriverSQLite {
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("persistencia SQLite")
		return &storage{
			tx:       sqlite.NewTxRunner(db),
			stores:   sqlite.NewStoreRepository(db),
			products: sqlite.NewProductRepository(db),
			access:   sqlite.NewStoreAccessRepository(db),
			close:    func() { _ = db.Close() },
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("persistencia PostgreSQL")
	return &storage{
		tx:       postgres.NewTxRunner(pool),
		stores:   postgres.NewStoreRepository(pool),
		products: postgres.NewProductRepository(pool),
		access:   postgres.NewStoreAccessRepository(pool),
		close:    pool.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a la base de datos")
	}
	defer store.close()

	retry := inventory.RetryPolicy{
		MaxAttempts: cfg.Ledger.MaxRetries,
		Backoff:     cfg.Ledger.RetryBackoff(),
	}
	gate := access.NewStoreGate(store.stores, store.access)
	prom := metrics.NewPrometheus(true)

	ledger := inventory.NewStockLedger(store.tx, gate, store.stores, store.products, inventory.LedgerConfig{
		Retry:      retry,
		HistoryMax: cfg.Ledger.HistoryMax,
	}, log)
	ledger.SetMetrics(prom)

	transfers := inventory.NewTransferCoordinator(ledger, infrapdf.NewSlipGenerator())
	purchases := purchasing.NewPurchaseOrderUseCase(store.tx, gate, store.stores, store.products, retry)
	arrivals := purchasing.NewArrivalReconciler(store.tx, gate, ledger, retry, log)
	arrivals.SetMetrics(prom)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Named("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Retail Stock API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger deshabilitado: no se encontró la especificación")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:    ledger,
		Transfers: transfers,
		Purchases: purchases,
		Arrivals:  arrivals,
		StoreUC:   usecase.NewStoreUseCase(store.stores, store.access, gate),
		ProductUC: usecase.NewProductUseCase(store.products),
		JWTSecret: cfg.JWT.Secret,
		Metrics:   prom.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
