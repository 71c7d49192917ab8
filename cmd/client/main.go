package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/local-legends/internal/clientstate"
	"github.com/jwebster45206/local-legends/internal/config"
	"github.com/jwebster45206/local-legends/internal/dialogue"
	"github.com/jwebster45206/local-legends/internal/logger"
	"github.com/jwebster45206/local-legends/pkg/conversation"
	"github.com/jwebster45206/local-legends/pkg/engine"
)

// holdWindow is how long a key counts as held after the terminal last reported it.
// Terminal key repeat usually fires every 30-50ms after an initial delay.
const holdWindow = 150 * time.Millisecond

func main() {
	cfg := config.LoadClient()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, closer := logger.SetupFile(cfg)
	defer func() {
		_ = closer.Close() // Ignore error in defer
	}()
	log.Info("Starting client", "api", cfg.APIBaseURL, "environment", cfg.Environment)

	assets, err := LoadAssets(cfg.AssetManifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load assets: %v\n", err)
		os.Exit(1)
	}

	client := dialogue.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, log)
	store := clientstate.NewFileStore(cfg.SessionFile)

	// Screen size is unknown until the first WindowSizeMsg.
	game := engine.New(engine.Options{
		ImageAspect: cfg.MapAspect,
		Oversize:    cfg.Oversize,
		HoldWindow:  holdWindow,
	}, log)
	bridge := conversation.NewBridge(client, store, cfg.RequestTimeout, log)
	game.AttachConversation(bridge)

	ui := NewWorldUI(cfg, client, game, bridge, assets, log)
	p := tea.NewProgram(ui,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		log.Error("Program exited with error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	log.Info("Client stopped", "session_id", bridge.SessionID())
}
