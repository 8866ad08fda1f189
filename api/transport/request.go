package transport

import "github.com/fastygo/taskpoints/domain"

type RegisterRequest struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type GuestRequest struct {
	Nickname string `json:"nickname"`
}

type TaskOrderRequest struct {
	Tasks []domain.Task `json:"tasks"`
}

type PointsRequest struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

type StoreItemRequest struct {
	Name        string `json:"name"`
	Price       int    `json:"price"`
	Description string `json:"description"`
}

// ChatRequest is one user turn. TimeSensitive overrides keyword detection.
type ChatRequest struct {
	Message       string `json:"message"`
	TimeSensitive *bool  `json:"time_sensitive,omitempty"`
}

type PersonaRequest struct {
	PersonaID string `json:"persona_id"`
}
