package handler

import (
	"errors"
	"net/http"

	"github.com/examhall/cbt-backend/internal/model"
	"github.com/examhall/cbt-backend/internal/repository"
	"github.com/examhall/cbt-backend/internal/response"
	"github.com/examhall/cbt-backend/internal/service"
	"github.com/examhall/cbt-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExamHandler handles admin exam management endpoints.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// List godoc
// GET /api/v1/admin/exams
func (h *ExamHandler) List(c *gin.Context) {
	exams, err := h.examService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// Get godoc
// GET /api/v1/admin/exams/:id
func (h *ExamHandler) Get(c *gin.Context) {
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

// Create godoc
// POST /api/v1/admin/exams
func (h *ExamHandler) Create(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInsufficientQuestions) {
			response.Fail(c, http.StatusBadRequest, response.ErrInsufficientQuestions)
			return
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"exam": err.Error(),
		})
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// Update godoc
// PATCH /api/v1/admin/exams/:id
func (h *ExamHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrInsufficientQuestions):
			response.Fail(c, http.StatusBadRequest, response.ErrInsufficientQuestions)
		default:
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"exam": err.Error(),
			})
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Delete godoc
// DELETE /api/v1/admin/exams/:id
func (h *ExamHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if err := h.examService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
