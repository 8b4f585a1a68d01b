package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hkao1210/A-PLUS-I/docs"
	"github.com/hkao1210/A-PLUS-I/internal/config"
	"github.com/hkao1210/A-PLUS-I/internal/database"
	"github.com/hkao1210/A-PLUS-I/internal/database/migration"
	"github.com/hkao1210/A-PLUS-I/internal/grading"
	handlers "github.com/hkao1210/A-PLUS-I/internal/http/handler"
	"github.com/hkao1210/A-PLUS-I/internal/http/middleware"
	aplusotel "github.com/hkao1210/A-PLUS-I/internal/otel"
	"github.com/hkao1210/A-PLUS-I/internal/repository/postgres"
	"github.com/hkao1210/A-PLUS-I/internal/service"
	"github.com/hkao1210/A-PLUS-I/internal/storage"
)

// multipartOverhead leaves room for form boundaries and headers on top of the
// document size limit.
const multipartOverhead = 1 << 20

// @title A-PLUS-I API
// @version 1.0
// @description Document store and answer grading service.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	loc := time.Local

	shutdownTracing, err := aplusotel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	llm, err := grading.NewOllama(cfg.Grader)
	if err != nil {
		log.Fatalf("failed to initialize grading model: %v", err)
	}
	grader, err := grading.NewLLMGrader(llm, cfg.Grader, nil, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to initialize grader: %v", err)
	}

	docRepo := postgres.NewDocumentPostgres(db)
	assessRepo := postgres.NewAssessmentPostgres(db)
	docSvc := service.NewDocumentService(objStore, docRepo, cfg.Documents)
	assessSvc := service.NewAssessmentService(docSvc, assessRepo, grader, cfg.Documents.MaxUploadBytes)

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    bodyLimit(cfg.Documents.MaxUploadBytes),
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(promMiddleware.Handler())

	app.Get(middleware.MetricsPath, middleware.Metrics(prometheus.DefaultGatherer))
	handlers.RegisterRoutes(app, db, objStore, docSvc, assessSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func bodyLimit(maxUpload int64) int {
	if maxUpload <= 0 {
		return fiber.DefaultBodyLimit
	}
	return int(maxUpload) + multipartOverhead
}
