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

	"github.com/jhoicas/comprobantes-api/internal/application/billing"
	"github.com/jhoicas/comprobantes-api/internal/application/inventory"
	"github.com/jhoicas/comprobantes-api/internal/domain/repository"
	infrafiscal "github.com/jhoicas/comprobantes-api/internal/infrastructure/fiscal"
	"github.com/jhoicas/comprobantes-api/internal/infrastructure/memory"
	"github.com/jhoicas/comprobantes-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/comprobantes-api/internal/interfaces/http"
	"github.com/jhoicas/comprobantes-api/pkg/config"
	"github.com/jhoicas/comprobantes-api/pkg/logger"
)

// backend agrupa los adaptadores de persistencia del driver elegido.
type backend struct {
	txRunner interface {
		billing.BillingTxRunner
		inventory.TxRunner
	}
	documents    repository.DocumentRepository
	customers    repository.CustomerRepository
	articles     repository.ArticleRepository
	voucherTypes repository.VoucherTypeRepository
	tributes     repository.TributeRepository
	salesPoints  repository.SalesPointRepository
	close        func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
		Name:  cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Str("fiscal", cfg.Fiscal.Mode).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer store.close()

	var authorizer billing.FiscalAuthorizer
	switch cfg.Fiscal.Mode {
	case infrafiscal.ModeHTTP:
		authorizer = infrafiscal.NewHTTPAuthorizer(cfg.Fiscal.URL, cfg.Fiscal.Timeout)
	default:
		// CAE simulado: solo para desarrollo y homologación local.
		authorizer = infrafiscal.NewDevAuthorizer(cfg.Fiscal.CAEDays)
	}

	ledgerUC := inventory.NewLedgerUseCase(store.txRunner)
	documentUC := billing.NewDocumentUseCase(
		store.txRunner, ledgerUC,
		store.documents, store.customers, store.articles,
		store.voucherTypes, store.tributes, store.salesPoints,
		authorizer,
		billing.Config{AllowBackorder: cfg.Billing.AllowBackorder},
		log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Fiscal.Timeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.HTTP.SwaggerFile != "" {
		if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.HTTP.SwaggerFile,
				Path:     "docs",
				Title:    "Comprobantes API",
			}))
		} else {
			log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger no disponible")
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		DocumentUC: documentUC,
		LedgerUC:   ledgerUC,
		Log:        log,
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

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.App.StoreDriver == config.StoreMemory {
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
		s := memory.NewSeeded()
		return &backend{
			txRunner:     s,
			documents:    s.Documents(),
			customers:    s.Customers(),
			articles:     s.Articles(),
			voucherTypes: s.VoucherTypes(),
			tributes:     s.Tributes(),
			salesPoints:  s.SalesPoints(),
			close:        func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return &backend{
		txRunner:     postgres.NewTxRunner(pool),
		documents:    postgres.NewDocumentRepository(pool),
		customers:    postgres.NewCustomerRepository(pool),
		articles:     postgres.NewArticleRepository(pool),
		voucherTypes: postgres.NewVoucherTypeRepository(pool),
		tributes:     postgres.NewTributeRepository(pool),
		salesPoints:  postgres.NewSalesPointRepository(pool),
		close:        pool.Close,
	}, nil
}
