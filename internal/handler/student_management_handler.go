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

// StudentManagementHandler handles admin roster endpoints.
type StudentManagementHandler struct {
	studentService *service.StudentService
}

// NewStudentManagementHandler creates a new StudentManagementHandler.
func NewStudentManagementHandler(studentService *service.StudentService) *StudentManagementHandler {
	return &StudentManagementHandler{studentService: studentService}
}

// List godoc
// GET /api/v1/admin/students
func (h *StudentManagementHandler) List(c *gin.Context) {
	students, err := h.studentService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"students": students})
}

// Create godoc
// POST /api/v1/admin/students
func (h *StudentManagementHandler) Create(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	student, err := h.studentService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// CreateBulk godoc
// POST /api/v1/admin/students/bulk
// Accepts an imported roster; rows without a name or student number are
// skipped, matching CSV import behavior.
func (h *StudentManagementHandler) CreateBulk(c *gin.Context) {
	var reqs []model.CreateStudentRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	if len(reqs) == 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	students, err := h.studentService.CreateBulk(c.Request.Context(), reqs)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"students": students})
}

// Update godoc
// PATCH /api/v1/admin/students/:id
func (h *StudentManagementHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	var req model.UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	student, err := h.studentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// Delete godoc
// DELETE /api/v1/admin/students/:id
func (h *StudentManagementHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
