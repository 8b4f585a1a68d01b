package handler

import (
	"mime"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/hkao1210/A-PLUS-I/internal/model"
	"github.com/hkao1210/A-PLUS-I/internal/service"
)

// TotalCountHeader carries the number of documents behind a listed page.
const TotalCountHeader = "X-Total-Count"

// documentID validates the :id route param.
func documentID(c *fiber.Ctx) (model.DocumentID, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return model.DocumentID(id), true
}

// ListDocuments godoc
// @Summary List documents
// @Description Documents ordered by upload time, newest first. The total is returned in X-Total-Count.
// @Tags documents
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "offset" default(0)
// @Success 200 {array} model.Document
// @Failure 400 {object} errorPayload
// @Router /api/pdfs [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err, "VALIDATION_ERROR")
		}
		items := res.Items
		if items == nil {
			items = []model.Document{}
		}
		c.Set(TotalCountHeader, strconv.Itoa(res.Total))
		return c.JSON(items)
	}
}

// UploadDocument godoc
// @Summary Upload a document
// @Description Accepts a PDF or plain text file in the multipart field "file".
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF or text document"
// @Success 201 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Router /api/upload-pdf [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := docSvc.Upload(c.UserContext(), f, fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
		if err != nil {
			return writeServiceError(c, err, "UNSUPPORTED_TYPE")
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument godoc
// @Summary Get document metadata
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/pdfs/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "VALIDATION_ERROR")
		}
		return c.JSON(doc)
	}
}

// DeleteDocument godoc
// @Summary Delete a document
// @Tags documents
// @Param id path string true "document id"
// @Success 204
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/pdfs/{id} [delete]
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err, "VALIDATION_ERROR")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PreviewDocument godoc
// @Summary Stream a document for inline display
// @Tags documents
// @Produce application/pdf,text/plain
// @Param id path string true "document id"
// @Success 200 {file} file
// @Failure 404 {object} errorPayload
// @Router /api/preview-pdf/{id} [get]
func PreviewDocument(docSvc service.DocumentService) fiber.Handler {
	return streamDocument(docSvc, "inline")
}

// DownloadDocument godoc
// @Summary Download a document
// @Tags documents
// @Produce application/pdf,text/plain
// @Param id path string true "document id"
// @Success 200 {file} file
// @Failure 404 {object} errorPayload
// @Router /api/download-pdf/{id} [get]
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return streamDocument(docSvc, "attachment")
}

func streamDocument(docSvc service.DocumentService, disposition string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, doc, err := docSvc.Open(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "VALIDATION_ERROR")
		}

		c.Set(fiber.HeaderContentType, doc.ContentType)
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType(disposition, map[string]string{"filename": doc.Filename}))
		// The response closes rc once the body has been written.
		return c.SendStream(rc, int(doc.Size))
	}
}
