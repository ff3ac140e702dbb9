package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "retail-backoffice/config"
	"retail-backoffice/internal/bootstrap"
	"retail-backoffice/middleware"
	"retail-backoffice/seeds"
	"retail-backoffice/utils"

	// Repositories
	category_repositories "retail-backoffice/categories/repositories"
	invoice_repositories "retail-backoffice/invoices/repositories"
	pricing_repositories "retail-backoffice/pricing/repositories"
	staff_repositories "retail-backoffice/staff/repositories"

	// Services
	invoice_services "retail-backoffice/invoices/services"
	pricing_services "retail-backoffice/pricing/services"
	staff_services "retail-backoffice/staff/services"

	// Controllers
	invoice_controllers "retail-backoffice/invoices/controllers"
	pricing_controllers "retail-backoffice/pricing/controllers"

	// Routes
	category_routes "retail-backoffice/categories/routes"
	invoice_routes "retail-backoffice/invoices/routes"
	pricing_routes "retail-backoffice/pricing/routes"
	staff_routes "retail-backoffice/staff/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables, then the Zap logger they configure
	config.LoadEnvAndLogger(".env")
	defer config.Logger.Sync()

	ctx := context.Background()
	settings := config.LoadPipelineSettings()
	roundingPolicy, err := pricing_services.ParseRoundingPolicy(settings.RoundingPolicy)
	if err != nil {
		config.Logger.Fatal("Invalid ROUNDING_POLICY", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		// multipart overhead on top of the largest accepted invoice
		BodyLimit: settings.MaxUploadBytes + 1<<20,
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	// Apply CORS middleware from middleware package
	middleware.InitCors(app)
	app.Use(middleware.IdentifyUser())

	// Initialize database and configs
	db := config.ConfigureDatabase()
	port := config.GetEnvOrDefault("PORT", "8080")

	if err := seeds.SeedRetailAll(db, config.GetEnvBool("SEED_SAMPLE_DATA", false)); err != nil {
		config.Logger.Error("Database seeding failed", zap.Error(err))
	}

	redisClient := config.InitRedisServer(ctx)
	if redisClient != nil {
		defer redisClient.Close()
	}

	models, err := bootstrap.NewModelClients(ctx, settings)
	if err != nil {
		config.Logger.Fatal("Cannot create model clients", zap.Error(err))
	}
	blobStore, closeBlobStore, err := bootstrap.NewBlobStore(ctx, settings)
	if err != nil {
		config.Logger.Fatal("Cannot create blob store", zap.Error(err))
	}
	defer closeBlobStore()
	locker := bootstrap.NewInvoiceLocker(redisClient, settings.AIRequestTimeout)

	// Notifications are optional
	var notifier staff_services.Notifier
	if mailer := utils.NewMailerFromEnv(); mailer != nil {
		notifier = mailer
	}

	// Repositories
	invoiceRepo := invoice_repositories.NewInvoiceRepository(db)
	wholesalerRepo := invoice_repositories.NewWholesalerRepository(db)
	categoryRepo := category_repositories.NewCategoryRepository(db)
	pricingRepo := pricing_repositories.NewPricingRepository(db)
	taskRepo := staff_repositories.NewStaffTaskRepository(db)

	// Services
	pipeline := invoice_services.NewPipeline(invoice_services.PipelineConfig{
		DocumentModel:       models.Document,
		CategorizationModel: models.Text,
		BlobStore:           blobStore,
		MaxExtractedItems:   settings.MaxExtractedItems,
		AIRequestTimeout:    settings.AIRequestTimeout,
		ExpectedRunSeconds:  settings.ExpectedRunSeconds,
		KeepFailedUploads:   settings.KeepFailedUploads,
	}, invoiceRepo, wholesalerRepo, categoryRepo, locker)

	taskGenerator := staff_services.NewTaskGenerator(db, invoiceRepo, notifier, staff_services.TaskGeneratorConfig{
		HighPriorityThreshold: settings.HighPriorityThreshold,
		DefaultDue:            settings.DefaultTaskDue,
		NotifyEmail:           config.GetEnv("STAFF_NOTIFY_EMAIL"),
	})
	taskService := staff_services.NewTaskService(db, taskRepo, invoiceRepo)
	calculator := pricing_services.NewPriceCalculator(db, invoiceRepo, categoryRepo)
	finalizer := pricing_services.NewFinalizer(db, invoiceRepo, calculator, taskGenerator)
	marginAdvisor := pricing_services.NewMarginAdvisor(models.Text, invoiceRepo, categoryRepo, pricingRepo, settings.AIRequestTimeout)

	// Serve locally stored invoices
	if settings.BlobStore == "" || settings.BlobStore == "local" {
		app.Static("/uploads", settings.UploadDir)
	}

	// Routes
	invoice_routes.InvoiceRouterInit(app, &invoice_controllers.InvoiceController{
		Pipeline:       pipeline,
		InvoiceRepo:    invoiceRepo,
		WholesalerRepo: wholesalerRepo,
		CategoryRepo:   categoryRepo,
		BlobStore:      blobStore,
		MaxUploadBytes: settings.MaxUploadBytes,
	})
	pricing_routes.PricingRouterInit(app, &pricing_controllers.PricingController{
		InvoiceRepo:     invoiceRepo,
		CategoryRepo:    categoryRepo,
		PricingRepo:     pricingRepo,
		Finalizer:       finalizer,
		MarginAdvisor:   marginAdvisor,
		DefaultRounding: roundingPolicy,
	})
	category_routes.CategoryRouterInit(app, categoryRepo)
	staff_routes.StaffRouterInit(app, taskService)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Background sweep for runs that died mid-pipeline
	sweeper, err := utils.ScheduleStaleProcessingSweep(pipeline.SweepStale, settings.StaleProcessingAfter)
	if err != nil {
		config.Logger.Fatal("Cannot schedule stale processing sweep", zap.Error(err))
	}

	// Start the application
	go func() {
		config.Logger.Info("Server starting", zap.String("port", port))
		if err := app.Listen(":" + port); err != nil {
			config.Logger.Fatal("Server failed", zap.String("port", port), zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	config.Logger.Info("Shutting down")
	<-sweeper.Stop().Done()
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		config.Logger.Error("Server shutdown failed", zap.Error(err))
	}
}
