// Package handler provides HTTP handlers for the node control API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fleetnode/fleetnode/internal/api/middleware"
	"github.com/fleetnode/fleetnode/internal/api/models"
	"github.com/fleetnode/fleetnode/internal/api/response"
	"github.com/fleetnode/fleetnode/internal/param"
	"github.com/fleetnode/fleetnode/internal/supervisor"
)

// NodeHandler exposes the supervisor's remote operations.
type NodeHandler struct {
	sup    *supervisor.Supervisor
	store  *param.ResilientStore
	logger zerolog.Logger
}

// NewNodeHandler creates a NodeHandler. store is optional; when set, the
// health endpoint includes the parameter store's circuit breaker state.
func NewNodeHandler(sup *supervisor.Supervisor, store *param.ResilientStore, logger zerolog.Logger) *NodeHandler {
	return &NodeHandler{sup: sup, store: store, logger: logger}
}

// Switch handles POST /v1/node/switch - enable or disable the node.
func (h *NodeHandler) Switch(w http.ResponseWriter, r *http.Request) {
	var req models.SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	success, message := h.sup.Switch(req.Desired)

	event := h.logger.Info().Bool("desired", req.Desired)
	if operator := middleware.GetOperator(r.Context()); operator != "" {
		event = event.Str("operator", operator)
	}
	event.Msg("switch requested")

	response.JSON(w, r, http.StatusOK, models.SwitchResponse{
		Success: success,
		Message: message,
	})
}

// ListParameters handles GET /v1/node/parameters - enumerate registered
// parameters in registration order.
func (h *NodeHandler) ListParameters(w http.ResponseWriter, r *http.Request) {
	descs := h.sup.ListParameters()
	response.JSON(w, r, http.StatusOK, models.ParameterList{Parameters: descs})
}

// RefreshParameter handles POST /v1/node/parameters/refresh - force-fetch
// one parameter from the external store. Lookup misses and store failures
// both come back as success=false.
func (h *NodeHandler) RefreshParameter(w http.ResponseWriter, r *http.Request) {
	var req models.ParameterRefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	ok := h.sup.RequestParameterUpdate(r.Context(), req.Parameter)

	event := h.logger.Info().Str("parameter", req.Parameter).Bool("success", ok)
	if operator := middleware.GetOperator(r.Context()); operator != "" {
		event = event.Str("operator", operator)
	}
	event.Msg("parameter refresh requested")

	response.JSON(w, r, http.StatusOK, models.ParameterRefreshResponse{Success: ok})
}

// Status handles GET /v1/node/health - current node status.
func (h *NodeHandler) Status(w http.ResponseWriter, r *http.Request) {
	health, reason := h.sup.Health()
	status := models.NodeStatus{
		Name:         h.sup.Name(),
		Type:         h.sup.Type().String(),
		Health:       health.String(),
		HealthReason: reason,
		Enabled:      h.sup.Enabled(),
		Shutdown:     h.sup.IsShutdown(),
	}
	if h.store != nil {
		status.ParameterStore = h.store.State().String()
	}
	response.JSON(w, r, http.StatusOK, status)
}
