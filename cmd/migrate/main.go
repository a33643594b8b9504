package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jhoicas/retail-stock/internal/infrastructure/migration"
	"github.com/jhoicas/retail-stock/pkg/config"
	"github.com/jhoicas/retail-stock/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones PostgreSQL de retail-stock",
	}
	root.PersistentFlags().String("dir", "", "directorio con los .sql (por defecto MIGRATIONS_PATH)")
	root.PersistentFlags().Bool("verbose", false, "log detallado de golang-migrate")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Aplica las migraciones pendientes",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(m *migration.Migrator) error { return m.Up() })
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Revierte steps migraciones (todas si se omite)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 0
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("steps inválido: %q", args[0])
					}
					steps = n
				}
				return withMigrator(cmd, func(m *migration.Migrator) error { return m.Down(steps) })
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Muestra la versión aplicada",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(m *migration.Migrator) error {
					v, dirty, err := m.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Fija la versión sin ejecutar migraciones",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("versión inválida: %q", args[0])
				}
				return withMigrator(cmd, func(m *migration.Migrator) error { return m.Force(v) })
			},
		},
	)
	return root
}

func withMigrator(cmd *cobra.Command, fn func(m *migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DB.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate solo aplica a postgres; sqlite crea su esquema al abrir la base")
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = cfg.DB.MigrationsPath
	}
	verbose, _ := cmd.Flags().GetBool("verbose")

	m, err := migration.New(cfg.DB.ConnectionString(), dir, log.Named("migrate"), verbose)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("cerrar migrador")
		}
	}()
	return fn(m)
}
