package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wishlist/account-service/internal/api/middleware"
	"github.com/wishlist/account-service/internal/core/ports"
)

// EventHandler exposes the session audit trail to admins.
type EventHandler struct {
	adminService ports.AdminService
}

func NewEventHandler(adminService ports.AdminService) *EventHandler {
	return &EventHandler{adminService: adminService}
}

// List handles GET /v1/admin/users/:username/events.
//
// @Summary      Session history of a user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true   "Username"
// @Param        limit     query     int     false  "Maximum number of events (1-500, default 50)"
// @Success      200       {array}   sessionEventResponse
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      502       {object}  errorResponse
// @Router       /v1/admin/users/{username}/events [get]
func (h *EventHandler) List(c echo.Context) error {
	var q eventsQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	limit := 0
	if q.Limit != nil {
		limit = *q.Limit
	}

	events, err := h.adminService.UserEvents(c.Request().Context(), middleware.Token(c), c.Param("username"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionEventResponses(events))
}
