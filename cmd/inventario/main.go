// inventario herramienta de línea de comandos: migraciones, movimientos, cargas masivas y backup XML.
//
// Uso: inventario <comando> [opciones]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/inventario-stock/cmd/inventario/cli"
	"github.com/jhoicas/inventario-stock/internal/app"
	"github.com/jhoicas/inventario-stock/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-stock/pkg/config"
	"github.com/jhoicas/inventario-stock/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		return cli.ExitFail
	}

	// stdout queda para la salida del comando
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, File: cfg.Log.File, Out: os.Stderr})
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cli.Run(ctx, os.Args[1:], cli.Options{
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		BackupDir:  cfg.Backup.Dir,
		SchemaPath: cfg.Backup.SchemaPath,
		Open: func(ctx context.Context) (*cli.Deps, func(), error) {
			pool, err := postgres.NewPool(ctx, cfg.DB)
			if err != nil {
				return nil, nil, err
			}
			svc, err := app.Build(cfg, pool, log)
			if err != nil {
				pool.Close()
				return nil, nil, err
			}
			return &cli.Deps{
				Auth:         svc.Auth,
				Ledger:       svc.Ledger,
				Importer:     svc.Importer,
				ImportReport: svc.ImportReport,
				Loader:       svc.Loader,
				Backup:       svc.Backup,
				Migrate: func(ctx context.Context) ([]string, error) {
					return postgres.Migrate(ctx, pool)
				},
			}, pool.Close, nil
		},
	})
}
