// Package roster turns backend NPC listings into placed actors, and carries the
// built-in roster used when the backend is offline.
package roster

import (
	_ "embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/local-legends/pkg/actor"
	"github.com/jwebster45206/local-legends/pkg/chat"
	"github.com/jwebster45206/local-legends/pkg/world"
)

// GridScale is the size of the grid NPC positions are expressed on.
const GridScale = 100.0

//go:embed fallback.yaml
var fallbackYAML []byte

// Fallback returns the built-in roster.
func Fallback() ([]chat.NPCInfo, error) {
	return Parse(fallbackYAML)
}

// Parse decodes a YAML (or JSON, which is valid YAML) list of NPC listings.
func Parse(data []byte) ([]chat.NPCInfo, error) {
	var infos []chat.NPCInfo
	if err := yaml.Unmarshal(data, &infos); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return infos, nil
}

// Build converts listings to NPCs sized to match the player. Listings without a name or
// position are skipped with a warning; the rest keep their listing order, which is the
// order proximity ties resolve in.
func Build(infos []chat.NPCInfo, size float64, logger *slog.Logger) []*actor.NPC {
	npcs := make([]*actor.NPC, 0, len(infos))
	seen := make(map[string]bool, len(infos))

	for i, info := range infos {
		id := strings.TrimSpace(info.Name)
		if id == "" {
			logger.Warn("Skipping NPC without a name", "index", i)
			continue
		}
		if info.Position == nil {
			logger.Warn("Skipping NPC without position data", "npc", id)
			continue
		}
		if seen[strings.ToLower(id)] {
			logger.Warn("Skipping duplicate NPC", "npc", id)
			continue
		}
		seen[strings.ToLower(id)] = true

		neighborhood := info.Neighborhood
		if neighborhood == "" {
			neighborhood = NeighborhoodFromAsset(info.Image)
		}

		npcs = append(npcs, &actor.NPC{
			ID:           id,
			DisplayName:  id,
			Portrait:     info.Image,
			AccentColor:  info.AreaColor,
			Neighborhood: neighborhood,
			Description:  info.Description,
			Fraction:     gridToFraction(*info.Position),
			Size:         size,
		})
	}
	return npcs
}

func gridToFraction(p chat.GridPosition) world.Vec {
	return world.Vec{
		X: clampUnit(float64(p.X) / GridScale),
		Y: clampUnit(float64(p.Y) / GridScale),
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NeighborhoodFromAsset derives a display name from a portrait file name, so
// "little_italy.png" becomes "Little Italy".
func NeighborhoodFromAsset(image string) string {
	base := strings.TrimSuffix(filepath.Base(image), filepath.Ext(image))
	if base == "" || base == "." {
		return ""
	}
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return cases.Title(language.English).String(strings.ToLower(base))
}
