package models

import "github.com/fleetnode/fleetnode/internal/param"

// SwitchRequest is the body of POST /v1/node/switch.
type SwitchRequest struct {
	Desired bool `json:"desired"`
}

// SwitchResponse reports the outcome of a switch call.
type SwitchResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ParameterList is the response of GET /v1/node/parameters.
type ParameterList struct {
	Parameters []param.Descriptor `json:"parameters"`
}

// ParameterRefreshRequest is the body of POST /v1/node/parameters/refresh.
type ParameterRefreshRequest struct {
	Parameter string `json:"parameter"`
}

// ParameterRefreshResponse reports whether the refresh succeeded.
type ParameterRefreshResponse struct {
	Success bool `json:"success"`
}

// NodeStatus is the response of GET /v1/node/health.
type NodeStatus struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Health       string `json:"health"`
	HealthReason string `json:"health_reason,omitempty"`
	Enabled      bool   `json:"enabled"`
	Shutdown     bool   `json:"shutdown"`

	// ParameterStore is the parameter store circuit breaker state
	// (closed, half-open, open). Empty when no external store is wired.
	ParameterStore string `json:"parameter_store,omitempty"`
}
