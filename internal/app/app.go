// Package app arma los casos de uso sobre PostgreSQL; lo comparten la API y la CLI.
package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-stock/internal/application/auth"
	"github.com/jhoicas/inventario-stock/internal/application/backup"
	"github.com/jhoicas/inventario-stock/internal/application/catalog"
	"github.com/jhoicas/inventario-stock/internal/application/importer"
	"github.com/jhoicas/inventario-stock/internal/application/inventory"
	infrapdf "github.com/jhoicas/inventario-stock/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-stock/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-stock/pkg/config"
	"github.com/jhoicas/inventario-stock/pkg/logger"
)

// Services casos de uso listos para usar.
type Services struct {
	Auth         *auth.AuthUseCase
	Ledger       *inventory.LedgerUseCase
	Importer     *importer.Importer
	ImportReport *infrapdf.ImportReportGenerator
	Loader       *catalog.Loader
	Catalog      *catalog.Service
	Backup       *backup.UseCase
}

// Build construye los servicios. Falla solo si la normalización configurada no existe.
func Build(cfg *config.Config, pool *pgxpool.Pool, log *logger.Logger) (*Services, error) {
	txRunner := postgres.NewTxRunner(pool)
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	normalizer, err := catalog.NewNormalizer(cfg.Catalog.Normalization, cfg.Catalog.Replacements)
	if err != nil {
		return nil, err
	}

	ledger := inventory.NewLedgerUseCase(txRunner, movementRepo, productRepo, cfg.Import.DefaultUser, log)
	return &Services{
		Auth: auth.NewAuthUseCase(userRepo, auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		}),
		Ledger: ledger,
		Importer: importer.New(ledger, importer.Options{
			LotSize: cfg.Import.LotSize,
			Charset: cfg.Import.Charset,
		}, log),
		ImportReport: infrapdf.NewImportReportGenerator(),
		Loader:       catalog.NewLoader(txRunner, categoryRepo, ledger, normalizer, cfg.Import.Charset, log),
		Catalog:      catalog.NewService(productRepo, categoryRepo),
		Backup:       backup.NewUseCase(txRunner, log),
	}, nil
}
