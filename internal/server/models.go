package server

// AuthSignupRequest is the signup payload.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest is the login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued JWT.
type TokenResponse struct {
	Token string `json:"token"`
}

// ChatRequest is the payload for POST /api/agent/chat.
type ChatRequest struct {
	Message     string                 `json:"message"`
	UserContext map[string]interface{} `json:"user_context,omitempty"`
}

// ChatResponse is the user-facing result of a chat turn.
type ChatResponse struct {
	RequestID    string   `json:"request_id"`
	Response     string   `json:"response"`
	Intent       string   `json:"intent"`
	AgentsUsed   []string `json:"agents_used,omitempty"`
	Cached       bool     `json:"cached"`
	DirectAnswer bool     `json:"direct_answer"`
	ProcessingMS int64    `json:"processing_ms"`
	TokensUsed   int64    `json:"tokens_used"`
}

// AgentTaskRequest is the payload for POST /api/agents/:agent_type/task.
type AgentTaskRequest struct {
	Message     string                 `json:"message"`
	UserContext map[string]interface{} `json:"user_context,omitempty"`
}

// HTTPError is the unified JSON error body.
type HTTPError struct {
	Error string `json:"error"`
}
