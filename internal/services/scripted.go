package services

import (
	"context"
	_ "embed"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/local-legends/pkg/chat"
)

//go:embed personas.yaml
var personasYAML []byte

// Persona is the canned material for one NPC.
type Persona struct {
	Greeting  string   `yaml:"greeting"`
	About     string   `yaml:"about"`
	Recommend string   `yaml:"recommend"`
	Farewell  string   `yaml:"farewell"`
	SmallTalk []string `yaml:"small_talk"`
	Options   []string `yaml:"options"`
}

// ScriptedResponder answers from canned persona lines picked by keyword. It stands in
// for a model-backed responder during development.
type ScriptedResponder struct {
	personas map[string]Persona
	logger   *slog.Logger
}

var _ Responder = (*ScriptedResponder)(nil)

// NewScriptedResponder loads the built-in personas.
func NewScriptedResponder(logger *slog.Logger) (*ScriptedResponder, error) {
	personas := make(map[string]Persona)
	if err := yaml.Unmarshal(personasYAML, &personas); err != nil {
		return nil, fmt.Errorf("failed to parse personas: %w", err)
	}
	return &ScriptedResponder{personas: personas, logger: logger}, nil
}

func (s *ScriptedResponder) Respond(ctx context.Context, npc chat.NPCInfo, message string, history []chat.ChatMessage) (*chat.NPCResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, ok := s.personas[normalize(npc.Name)]
	if !ok {
		s.logger.Warn("No persona for NPC", "npc", npc.Name)
		return Confused(npc.Name), nil
	}

	text := s.pick(p, npc, message, history)
	opts := rotate(p.Options, len(history)/2)
	if len(opts) > MaxOptions-1 {
		opts = opts[:MaxOptions-1]
	}
	options := LimitOptions(append(opts, chat.FreeTextOption))
	return &chat.NPCResponse{Text: text, Options: options}, nil
}

func (s *ScriptedResponder) pick(p Persona, npc chat.NPCInfo, message string, history []chat.ChatMessage) string {
	m := strings.ToLower(message)
	switch {
	case containsAny(m, "bye", "later", "see you", "gotta go"):
		return p.Farewell
	case containsAny(m, "yourself", "who are you", "what do you do"):
		return p.About
	case containsAny(m, "recommend", "good", "best", "should i"):
		return p.Recommend
	case len(history) == 0 && containsAny(m, "hi", "hey", "hello", "sup", "what's up"):
		return p.Greeting
	}
	if len(p.SmallTalk) == 0 {
		return p.Greeting
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(m))
	idx := int((h.Sum32() + uint32(len(history))) % uint32(len(p.SmallTalk)))
	line := p.SmallTalk[idx]
	if npc.Neighborhood != "" && len(history) == 0 {
		line = fmt.Sprintf("First time in %s? %s", npc.Neighborhood, line)
	}
	return line
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// rotate returns a copy of xs starting at position n.
func rotate(xs []string, n int) []string {
	if len(xs) == 0 {
		return nil
	}
	n %= len(xs)
	return append(append([]string(nil), xs[n:]...), xs[:n]...)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
