package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-stock/internal/application/auth"
	"github.com/jhoicas/inventario-stock/internal/application/backup"
	"github.com/jhoicas/inventario-stock/internal/application/catalog"
	"github.com/jhoicas/inventario-stock/internal/application/importer"
	"github.com/jhoicas/inventario-stock/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	Ledger       *inventory.LedgerUseCase
	Importer     *importer.Importer
	ImportReport importer.ReportRenderer
	Loader       *catalog.Loader
	Catalog      *catalog.Service
	Backup       *backup.UseCase
	BackupDir    string
	SchemaPath   string
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	protected.Post("/users", authHandler.CreateUser)

	// Ledger de movimientos
	movements := protected.Group("/movements")
	inventoryHandler := NewInventoryHandler(deps.Ledger)
	movements.Post("/", inventoryHandler.RegisterMovement)
	movements.Post("/batch", inventoryHandler.RegisterBatch)
	movements.Get("/", inventoryHandler.ListMovements)
	movements.Get("/summary", inventoryHandler.Summary)
	movements.Get("/:id", inventoryHandler.GetMovement)

	// Cargas masivas
	importHandler := NewImportHandler(deps.Importer, deps.ImportReport, deps.Loader)
	protected.Post("/imports/movements", importHandler.ImportMovements)
	protected.Post("/catalog/categories", importHandler.LoadCategories)
	protected.Post("/catalog/products", importHandler.LoadProducts)

	// Products y categorías (consulta)
	productHandler := NewProductHandler(deps.Catalog)
	products := protected.Group("/products")
	products.Get("/", productHandler.List)
	products.Get("/low-stock", productHandler.LowStock)
	products.Get("/:id", productHandler.GetByID)
	categories := protected.Group("/categories")
	categories.Get("/", productHandler.ListCategories)
	categories.Delete("/:id", productHandler.DeleteCategory)

	// Backup XML
	backupGroup := protected.Group("/backup")
	backupHandler := NewBackupHandler(deps.Backup, deps.BackupDir, deps.SchemaPath)
	backupGroup.Get("/export", backupHandler.Download)
	backupGroup.Post("/export", backupHandler.Export)
	backupGroup.Post("/validate", backupHandler.Validate)
	backupGroup.Post("/restore", backupHandler.Restore)
	backupGroup.Get("/fingerprint", backupHandler.Fingerprint)
}
