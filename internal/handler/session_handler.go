package handler

import (
	"errors"
	"net/http"

	"github.com/examhall/cbt-backend/internal/config"
	"github.com/examhall/cbt-backend/internal/model"
	"github.com/examhall/cbt-backend/internal/repository"
	"github.com/examhall/cbt-backend/internal/response"
	"github.com/examhall/cbt-backend/internal/service"
	"github.com/examhall/cbt-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHandler handles the exam session lifecycle endpoints.
type SessionHandler struct {
	cfg            *config.Config
	sessionService *service.ExamSessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(cfg *config.Config, sessionService *service.ExamSessionService) *SessionHandler {
	return &SessionHandler{cfg: cfg, sessionService: sessionService}
}

// Create godoc
// POST /api/v1/exam-sessions
// Starts an attempt and freezes the question set the student will see.
func (h *SessionHandler) Create(c *gin.Context) {
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.CreateSession(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrInsufficientQuestions):
			response.Fail(c, http.StatusBadRequest, response.ErrInsufficientQuestions)
		default:
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"session": err.Error(),
			})
		}
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// Get godoc
// GET /api/v1/exam-sessions/:id
// Returns the session with its remaining time budget, for reload recovery.
func (h *SessionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	state, err := h.sessionService.GetSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"session":          state.Session,
		"remainingSeconds": state.RemainingSeconds,
	})
}

// Questions godoc
// GET /api/v1/exam-sessions/:id/questions
// Returns the session's resolved question set in presentation order.
func (h *SessionHandler) Questions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questions, err := h.sessionService.SessionQuestions(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if h.cfg.ExposeAnswerKeys {
		response.Success(c, http.StatusOK, gin.H{"questions": questions})
		return
	}
	sanitized := make([]model.QuestionForStudent, 0, len(questions))
	for i := range questions {
		sanitized = append(sanitized, questions[i].ForStudent())
	}
	response.Success(c, http.StatusOK, gin.H{"questions": sanitized})
}

// Progress godoc
// PATCH /api/v1/exam-sessions/:id
// Replaces the stored answers and navigation index wholesale.
func (h *SessionHandler) Progress(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	var req model.ProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.RecordProgress(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrSessionCompleted):
			response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
		case errors.Is(err, service.ErrSessionExpired):
			response.Fail(c, http.StatusConflict, response.ErrSessionExpired)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Submit godoc
// POST /api/v1/exam-sessions/:id/submit
// Finalizes the session. Idempotent: resubmission returns the stored result.
func (h *SessionHandler) Submit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	var req model.SubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
	}

	result, err := h.sessionService.Finalize(c.Request.Context(), id, req.Answers)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Result godoc
// GET /api/v1/exam-sessions/:id/result
// Returns the canonical result for a session.
func (h *SessionHandler) Result(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	result, err := h.sessionService.GetResultBySession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ResultByID godoc
// GET /api/v1/results/:id
func (h *SessionHandler) ResultByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	result, err := h.sessionService.GetResult(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ListResults godoc
// GET /api/v1/admin/results
func (h *SessionHandler) ListResults(c *gin.Context) {
	results, err := h.sessionService.ListResults(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}
