package migration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // driver postgres://
	_ "github.com/golang-migrate/migrate/v4/source/file"       // fuente file://

	"github.com/jhoicas/retail-stock/pkg/logger"
)

// Migrator aplica los .sql de migrations/ sobre PostgreSQL con golang-migrate.
type Migrator struct {
	m   *migrate.Migrate
	log *logger.Logger
}

// New crea el migrador. migrationsPath es un directorio local.
func New(databaseURL, migrationsPath string, log *logger.Logger, verbose bool) (*Migrator, error) {
	if log == nil {
		log = logger.Nop()
	}
	m, err := migrate.New(sourceURL(migrationsPath), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("crear migrador: %w", err)
	}
	m.Log = &migrateLogger{log: log, verbose: verbose}
	return &Migrator{m: m, log: log}, nil
}

func sourceURL(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + path
}

// Up aplica las migraciones pendientes. Sin cambios no es error.
func (m *Migrator) Up() error {
	err := m.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info().Msg("migraciones: sin cambios")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migración up: %w", err)
	}
	version, dirty, _ := m.Version()
	m.log.Info().Uint("version", version).Bool("dirty", dirty).Msg("migraciones aplicadas")
	return nil
}

// Down revierte steps migraciones; steps <= 0 revierte todas.
func (m *Migrator) Down(steps int) error {
	var err error
	if steps > 0 {
		err = m.m.Steps(-steps)
	} else {
		err = m.m.Down()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info().Msg("migraciones: nada que revertir")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migración down: %w", err)
	}
	m.log.Info().Int("steps", steps).Msg("migraciones revertidas")
	return nil
}

// Version versión actual; 0 si nunca se migró.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("versión de migración: %w", err)
	}
	return version, dirty, nil
}

// Force fija la versión sin ejecutar migraciones (recuperar un estado dirty).
func (m *Migrator) Force(version int) error {
	m.log.Warn().Int("version", version).Msg("forzando versión de migración")
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("forzar versión %d: %w", version, err)
	}
	return nil
}

// Close libera fuente y conexión.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// migrateLogger adapta el logger de la app a migrate.Logger.
type migrateLogger struct {
	log     *logger.Logger
	verbose bool
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.log.Info().Msgf("migrate: "+strings.TrimSuffix(format, "\n"), v...)
}

func (l *migrateLogger) Verbose() bool {
	return l.verbose
}
