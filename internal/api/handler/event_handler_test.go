package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/wishlist/account-service/internal/core/domain"
)

func TestEventHandler_List(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	stub := &stubAdminService{
		eventsFn: func(_ context.Context, token, username string, limit int) ([]domain.SessionEvent, error) {
			if token != "admin-token" || username != "alice" || limit != 10 {
				t.Fatalf("unexpected args: %s %s %d", token, username, limit)
			}
			return []domain.SessionEvent{
				{Type: domain.EventSessionsRevoked, Username: "alice", Actor: "root", Timestamp: ts},
				{Type: domain.EventLogin, Username: "alice", Timestamp: ts.Add(-time.Hour)},
			}, nil
		},
	}
	handler := NewEventHandler(stub)

	c, rec := newTestContext(http.MethodGet, "/v1/admin/users/alice/events?limit=10", "", "admin-token")
	c.SetParamNames("username")
	c.SetParamValues("alice")
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp []sessionEventResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 || resp[0].Type != "sessions_revoked" || resp[0].Actor != "root" || resp[1].Actor != "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEventHandler_List_InvalidLimit(t *testing.T) {
	handler := NewEventHandler(&stubAdminService{})

	for _, target := range []string{"/v1/admin/users/alice/events?limit=0", "/v1/admin/users/alice/events?limit=abc", "/v1/admin/users/alice/events?limit=501"} {
		c, _ := newTestContext(http.MethodGet, target, "", "admin-token")
		c.SetParamNames("username")
		c.SetParamValues("alice")
		expectHTTPError(t, handler.List(c), http.StatusBadRequest)
	}
}
