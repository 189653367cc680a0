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

// QuestionHandler handles admin question bank endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// List godoc
// GET /api/v1/admin/questions
func (h *QuestionHandler) List(c *gin.Context) {
	questions, err := h.questionService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Get godoc
// GET /api/v1/admin/questions/:id
func (h *QuestionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	question, err := h.questionService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// Create godoc
// POST /api/v1/admin/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), &req)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"question": err.Error(),
		})
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// CreateBulk godoc
// POST /api/v1/admin/questions/bulk
func (h *QuestionHandler) CreateBulk(c *gin.Context) {
	var reqs []model.CreateQuestionRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	if len(reqs) == 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	questions, err := h.questionService.CreateBulk(c.Request.Context(), reqs)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"questions": err.Error(),
		})
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"questions": questions})
}

// Delete godoc
// DELETE /api/v1/admin/questions/:id
func (h *QuestionHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if err := h.questionService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
