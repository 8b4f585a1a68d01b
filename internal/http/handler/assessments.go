package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/hkao1210/A-PLUS-I/internal/model"
	"github.com/hkao1210/A-PLUS-I/internal/service"
)

// processAnswerRequest is the grading request body. pdfId is the older name of
// documentId and is read only when documentId is absent.
type processAnswerRequest struct {
	DocumentID    string `json:"documentId"`
	PDFID         string `json:"pdfId"`
	Question      string `json:"question"`
	TeacherAnswer string `json:"teacherAnswer"`
}

func (r processAnswerRequest) id() string {
	if id := strings.TrimSpace(r.DocumentID); id != "" {
		return id
	}
	return strings.TrimSpace(r.PDFID)
}

// ProcessAnswer godoc
// @Summary Grade a stored document
// @Description Scores the student's document against the question and reference answer and records the assessment.
// @Tags assessments
// @Accept json
// @Produce json
// @Param request body processAnswerRequest true "grading request"
// @Success 200 {object} model.Assessment
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /api/process-answer [post]
func ProcessAnswer(assessSvc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body processAnswerRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "request body must be a JSON object")
		}

		id := body.id()
		if id != "" {
			if _, err := uuid.Parse(id); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
			}
		}

		req, err := model.NewGradingRequest(model.DocumentID(id), body.Question, body.TeacherAnswer)
		if err != nil {
			return writeServiceError(c, err, "VALIDATION_ERROR")
		}

		a, err := assessSvc.Assess(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err, "VALIDATION_ERROR")
		}
		return c.JSON(a)
	}
}

// ListAssessments godoc
// @Summary Grading history of a document
// @Tags assessments
// @Produce json
// @Param id path string true "document id"
// @Param limit query int false "maximum entries" default(20)
// @Success 200 {array} model.Assessment
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/pdfs/{id}/assessments [get]
func ListAssessments(assessSvc service.AssessmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		limit, err := strconv.Atoi(c.Query("limit", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}

		items, err := assessSvc.History(c.UserContext(), id, limit)
		if err != nil {
			return writeServiceError(c, err, "VALIDATION_ERROR")
		}
		if items == nil {
			items = []model.Assessment{}
		}
		return c.JSON(items)
	}
}
