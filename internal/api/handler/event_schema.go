package handler

import (
	"time"

	"github.com/wishlist/account-service/internal/core/domain"
)

type eventsQuery struct {
	Limit *int `query:"limit" validate:"omitempty,min=1,max=500"`
}

type sessionEventResponse struct {
	Type      string    `json:"type"`
	Username  string    `json:"username"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func toSessionEventResponses(events []domain.SessionEvent) []sessionEventResponse {
	out := make([]sessionEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, sessionEventResponse{
			Type:      string(e.Type),
			Username:  e.Username,
			Actor:     e.Actor,
			Timestamp: e.Timestamp,
		})
	}
	return out
}
