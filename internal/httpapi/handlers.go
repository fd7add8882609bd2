package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hubsync/hubsync/internal/hub"
)

// Handlers holds the API endpoints. Responses carry redacted configs only;
// stored credential material never leaves the process through this surface.
type Handlers struct {
	Hub *hub.Hub
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) HandleHealthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (h *Handlers) HandleListIntegrations(c echo.Context) error {
	configs, err := h.Hub.ListIntegrations(c.Request().Context())
	if err != nil {
		return writeError(c, err, http.StatusInternalServerError)
	}
	out := make([]hub.IntegrationConfig, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, cfg.Redacted())
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) HandleRegisterIntegration(c echo.Context) error {
	var cfg hub.IntegrationConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid integration payload"})
	}
	if err := h.Hub.RegisterIntegration(c.Request().Context(), cfg); err != nil {
		return writeError(c, err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, cfg.Redacted())
}

func (h *Handlers) HandleGetIntegration(c echo.Context) error {
	cfg, err := h.Hub.GetIntegration(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err, http.StatusInternalServerError)
	}
	if cfg == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: fmt.Sprintf("integration %s not found", c.Param("id"))})
	}
	return c.JSON(http.StatusOK, cfg.Redacted())
}

func (h *Handlers) HandleReplaceIntegration(c echo.Context) error {
	var cfg hub.IntegrationConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid integration payload"})
	}
	cfg.ID = c.Param("id")
	if err := h.Hub.ReplaceIntegration(c.Request().Context(), cfg); err != nil {
		return writeError(c, err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, cfg.Redacted())
}

func (h *Handlers) HandleRemoveIntegration(c echo.Context) error {
	if err := h.Hub.RemoveIntegration(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err, http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) HandleSyncIntegration(c echo.Context) error {
	result, err := h.Hub.SyncIntegration(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handlers) HandleSyncAll(c echo.Context) error {
	report, err := h.Hub.SyncAll(c.Request().Context())
	if err != nil {
		return writeError(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handlers) HandleHealth(c echo.Context) error {
	statuses, err := h.Hub.HealthCheck(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, statuses)
}

// HandleEvents streams hub lifecycle events as server-sent events until the
// client disconnects.
func (h *Handlers) HandleEvents(c echo.Context) error {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	events := make(chan hub.Event, 64)
	unsubscribe := h.Hub.Bus().SubscribeAll(func(e hub.Event) {
		select {
		case events <- e:
		default: // slow client, drop rather than block the hub
		}
	})
	defer unsubscribe()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			payload, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", e.Type, payload); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

// writeError maps hub sentinels onto HTTP statuses. Non-sentinel errors use
// fallback: 400 on the mutation paths where they mean a bad payload, 500
// elsewhere.
func writeError(c echo.Context, err error, fallback int) error {
	switch {
	case errors.Is(err, hub.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, hub.ErrDuplicateID), errors.Is(err, hub.ErrDisabled):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, hub.ErrUnsupportedType):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		return c.JSON(fallback, errorResponse{Error: err.Error()})
	}
}
