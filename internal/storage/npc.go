package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jwebster45206/local-legends/pkg/chat"
	"github.com/jwebster45206/local-legends/pkg/roster"
)

// NPC operations (filesystem-backed)

// ListNPCs reads DATA_DIR/npcs.json, or the built-in roster when the file is absent.
func (r *RedisStorage) ListNPCs(ctx context.Context) ([]chat.NPCInfo, error) {
	path := filepath.Join(r.dataDir, "npcs.json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Debug("No roster file, using built-in roster", "path", path)
			return roster.Fallback()
		}
		return nil, fmt.Errorf("failed to read roster file %s: %w", path, err)
	}

	npcs, err := roster.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster from %s: %w", path, err)
	}
	return npcs, nil
}
