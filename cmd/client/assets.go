package main

import (
	_ "embed"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"unicode"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

//go:embed assets.yaml
var defaultAssetsYAML []byte

// Sprite is how an image asset is drawn in the terminal.
type Sprite struct {
	Glyph string `yaml:"glyph"`
	Color string `yaml:"color"`
}

// AssetManifest maps asset names to sprites.
type AssetManifest struct {
	Sprites map[string]Sprite `yaml:"sprites"`
}

// LoadAssets reads the built-in manifest and overlays the one at path, if any.
func LoadAssets(path string) (*AssetManifest, error) {
	m := &AssetManifest{}
	if err := yaml.Unmarshal(defaultAssetsYAML, m); err != nil {
		return nil, fmt.Errorf("failed to parse built-in assets: %w", err)
	}
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset manifest: %w", err)
	}
	var extra AssetManifest
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse asset manifest %s: %w", path, err)
	}
	for name, s := range extra.Sprites {
		m.Sprites[name] = s
	}
	return m, nil
}

// Sprite looks up name. Missing or incomplete entries are filled in from fallbackID
// so the same NPC always gets the same stand-in.
func (m *AssetManifest) Sprite(name, fallbackID string) (Sprite, bool) {
	s, ok := m.Sprites[name]
	if !ok || s.Glyph == "" || s.Color == "" {
		p := ProceduralSprite(fallbackID)
		if s.Glyph == "" {
			s.Glyph = p.Glyph
		}
		if s.Color == "" {
			s.Color = p.Color
		}
	}
	return s, ok
}

// Procedural sprites share saturation and lightness so only the hue tells them apart.
const (
	spriteSaturation = 0.6
	spriteLightness  = 0.6
)

// ProceduralSprite derives a glyph and color from an ID: the ID's first letter, and a
// hue from its hash.
func ProceduralSprite(id string) Sprite {
	glyph := "?"
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			glyph = strings.ToUpper(string(r))
			break
		}
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	sum := h.Sum32()
	color := colorful.Hsl(float64(sum%360), spriteSaturation, spriteLightness)
	return Sprite{Glyph: glyph, Color: color.Hex()}
}
