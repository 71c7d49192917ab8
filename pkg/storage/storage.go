package storage

import (
	"context"

	"github.com/jwebster45206/local-legends/pkg/chat"
	"github.com/jwebster45206/local-legends/pkg/state"
)

// Storage is the dialogue server's persistence: sessions in Redis, the NPC roster
// from the data directory.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations (Redis-backed). LoadSession returns nil, nil when the
	// session does not exist.
	SaveSession(ctx context.Context, s *state.Session) error
	LoadSession(ctx context.Context, id string) (*state.Session, error)
	DeleteSession(ctx context.Context, id string) error

	// NPC operations (filesystem-backed)
	ListNPCs(ctx context.Context) ([]chat.NPCInfo, error)
}
