package websocket

// Actions (client to server).

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// Request carries every client message. QID and Answer are only meaningful
// for autosave; Answers optionally accompanies submit.
type Request struct {
	Action  Action            `json:"action"`
	QID     string            `json:"qId,omitempty"`
	Answer  string            `json:"ans,omitempty"`
	Answers map[string]string `json:"answers,omitempty"`
}

// Events (server to client).

type Event string

const (
	EventError  Event = "error"
	EventSaved  Event = "saved"
	EventGraded Event = "graded"
	EventPong   Event = "pong"
)

type SavedResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

type GradedResponse struct {
	Event       Event  `json:"event"`
	ResultID    string `json:"resultId"`
	Score       int    `json:"score"`
	TotalPoints int    `json:"totalPoints"`
	Percentage  int    `json:"percentage"`
	Passed      bool   `json:"passed"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
