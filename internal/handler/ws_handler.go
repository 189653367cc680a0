package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/examhall/cbt-backend/internal/config"
	"github.com/examhall/cbt-backend/internal/service"
	ws "github.com/examhall/cbt-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation. An
// empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams an exam session: answer autosave into the Redis fast
// lane and instant submit-and-grade, without HTTP round trips per answer.
type WSHandler struct {
	rdb            *redis.Client
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:            rdb,
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:id/stream
func (h *WSHandler) SessionStream(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	state, err := h.sessionService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if state.Session.IsCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "session already completed"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	answersKey := config.CacheKey.SessionAnswersKey(sessionID.String())
	wsLog := h.log.With().Str("session_id", sessionID.String()).Logger()
	wsLog.Info().Msg("Student connected")

	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, wsLog, answersKey, sessionID, &msg)
		case ws.ActionSubmit:
			done := h.handleSubmit(conn, wsLog, answersKey, sessionID, &msg)
			if done {
				return
			}
		case ws.ActionPing:
			_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

// handleAutosave writes one answer to the Redis hash and queues it for
// Postgres persistence by the progress worker.
func (h *WSHandler) handleAutosave(conn *websocket.Conn, wsLog zerolog.Logger, answersKey string, sessionID uuid.UUID, msg *ws.Request) {
	ctx := context.Background()

	if msg.QID == "" || msg.Answer == "" {
		ws.WriteError(conn, "qId and ans are required")
		return
	}
	// QID keys a Redis hash field and a jsonb key; reject anything that is
	// not a well-formed uuid.
	if _, err := uuid.Parse(msg.QID); err != nil {
		ws.WriteError(conn, "invalid qId format")
		return
	}

	if err := h.rdb.HSet(ctx, answersKey, msg.QID, msg.Answer).Err(); err != nil {
		wsLog.Error().Err(err).Msg("Autosave Redis error")
		ws.WriteError(conn, "save failed")
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"session_id": sessionID.String(),
		"q_id":       msg.QID,
		"answer":     msg.Answer,
	})
	h.rdb.RPush(ctx, config.WorkerKey.PersistProgressQueue, payload)

	_ = ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, Status: "saved"})
}

// handleSubmit merges the autosaved answers with any final payload and
// finalizes the session. Returns true when the stream should close.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, answersKey string, sessionID uuid.UUID, msg *ws.Request) bool {
	ctx := context.Background()

	autosaved, err := h.rdb.HGetAll(ctx, answersKey).Result()
	if err != nil {
		wsLog.Error().Err(err).Msg("Get autosaved answers error")
		ws.WriteError(conn, "failed to get answers")
		return false
	}

	// Final payload wins over autosaved values for the same question.
	final := make(map[string]string, len(autosaved)+len(msg.Answers))
	for k, v := range autosaved {
		final[k] = v
	}
	for k, v := range msg.Answers {
		final[k] = v
	}

	var answers map[string]string
	if len(final) > 0 {
		answers = final
	}

	result, err := h.sessionService.Finalize(ctx, sessionID, answers)
	if err != nil {
		wsLog.Error().Err(err).Msg("Finalize error")
		ws.WriteError(conn, "grading failed")
		return false
	}

	h.rdb.Del(ctx, answersKey)

	wsLog.Info().
		Int("score", result.Score).
		Int("percentage", result.Percentage).
		Bool("passed", result.Passed).
		Msg("Session submitted and graded")

	_ = ws.WriteTyped(conn, ws.GradedResponse{
		Event:       ws.EventGraded,
		ResultID:    result.ID.String(),
		Score:       result.Score,
		TotalPoints: result.TotalPoints,
		Percentage:  result.Percentage,
		Passed:      result.Passed,
	})
	return true
}
