package controller

import (
	"context"

	"minishield-dashboard/internal/core"
	"minishield-dashboard/internal/gateway"
)

// Status polls the subsystem health snapshot. The snapshot is never cached
// beyond a single fetch; every call goes to the gateway.
type Status struct {
	client *gateway.Client
}

func NewStatus(client *gateway.Client) *Status {
	return &Status{client: client}
}

// Fetch returns a fresh snapshot of gateway, database and ML scorer state.
func (s *Status) Fetch(ctx context.Context) (*core.SystemStatus, error) {
	return s.client.SystemStatus(ctx)
}
