package handler

import (
	"errors"
	"net/http"

	"github.com/examhall/cbt-backend/internal/repository"
	"github.com/examhall/cbt-backend/internal/response"
	"github.com/examhall/cbt-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExamPortalHandler handles the public, student-facing exam endpoints.
// Students do not authenticate; the paper endpoint never exposes answer
// keys since its payload lands in a shared cache.
type ExamPortalHandler struct {
	examService *service.ExamService
}

// NewExamPortalHandler creates a new ExamPortalHandler.
func NewExamPortalHandler(examService *service.ExamService) *ExamPortalHandler {
	return &ExamPortalHandler{examService: examService}
}

// ListActive godoc
// GET /api/v1/exams
// Lists exams currently open to students.
func (h *ExamPortalHandler) ListActive(c *gin.Context) {
	exams, err := h.examService.ListActive(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// Get godoc
// GET /api/v1/exams/:id
func (h *ExamPortalHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	exam, err := h.examService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// GetPaper godoc
// GET /api/v1/exams/:id/paper
// Returns the exam with its question payloads, answer keys stripped. Served
// from the Redis cache when warm.
func (h *ExamPortalHandler) GetPaper(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	paper, err := h.examService.GetPaper(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}
