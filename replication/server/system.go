package server

import (
	"context"
	"errors"

	"github.com/plus3/mmoss/ecs"
)

// ReplicationSystem serializes the storage to all clients once per frame.
// Register it after the systems that mutate replicated state.
type ReplicationSystem struct {
	Manager *Manager
	Context context.Context
}

func (s *ReplicationSystem) Execute(frame *ecs.UpdateFrame) {
	ctx := s.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.Manager.Serialize(ctx, frame.Storage); err != nil && !errors.Is(err, ErrClosed) {
		s.Manager.logger.Error("replication pass failed", "error", err)
	}
}
