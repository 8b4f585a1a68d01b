package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"github.com/hkao1210/A-PLUS-I/internal/service"
	"github.com/hkao1210/A-PLUS-I/internal/storage"
)

// RegisterRoutes attaches the document store and grading routes to app.
// store may be nil, in which case /health checks the database only.
func RegisterRoutes(app *fiber.App, db *sql.DB, store storage.Storage, docSvc service.DocumentService, assessSvc service.AssessmentService) {
	app.Get("/health", HealthCheck(db, store))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Post("/upload-pdf", UploadDocument(docSvc))
	api.Get("/pdfs", ListDocuments(docSvc))
	api.Get("/pdfs/:id", GetDocument(docSvc))
	api.Delete("/pdfs/:id", DeleteDocument(docSvc))
	api.Get("/pdfs/:id/assessments", ListAssessments(assessSvc))
	api.Get("/preview-pdf/:id", PreviewDocument(docSvc))
	api.Get("/download-pdf/:id", DownloadDocument(docSvc))
	api.Post("/process-answer", ProcessAnswer(assessSvc))
}
