package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/local-legends/pkg/chat"
	"github.com/jwebster45206/local-legends/pkg/conversation"
	"github.com/jwebster45206/local-legends/pkg/engine"
	"github.com/jwebster45206/local-legends/pkg/world"
)

// A terminal cell stands in for this many world pixels.
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

// gridSpacing is the distance between ground markers in world pixels.
const gridSpacing = 96.0

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

const (
	groundColor = "238"
	playerColor = "255"
	promptColor = "226"
	debugColor  = "214"
)

type cell struct {
	r     rune
	color string
	bold  bool
}

// canvas is a grid of styled runes, rendered one style run at a time.
type canvas struct {
	w, h  int
	cells [][]cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]cell, h)}
	for y := range c.cells {
		row := make([]cell, w)
		for x := range row {
			row[x] = cell{r: ' '}
		}
		c.cells[y] = row
	}
	return c
}

func (c *canvas) set(x, y int, r rune, color string, bold bool) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y][x] = cell{r: r, color: color, bold: bold}
}

// text writes s starting at (x, y), clipped to the canvas.
func (c *canvas) text(x, y int, s, color string, bold bool) {
	for _, r := range s {
		c.set(x, y, r, color, bold)
		x++
	}
}

// centered writes s so that its middle sits on column x.
func (c *canvas) centered(x, y int, s, color string, bold bool) {
	c.text(x-len([]rune(s))/2, y, s, color, bold)
}

func (c *canvas) box(x0, y0, x1, y1 int, corners [4]rune, color string) {
	for x := x0 + 1; x < x1; x++ {
		c.set(x, y0, '─', color, false)
		c.set(x, y1, '─', color, false)
	}
	for y := y0 + 1; y < y1; y++ {
		c.set(x0, y, '│', color, false)
		c.set(x1, y, '│', color, false)
	}
	c.set(x0, y0, corners[0], color, false)
	c.set(x1, y0, corners[1], color, false)
	c.set(x0, y1, corners[2], color, false)
	c.set(x1, y1, corners[3], color, false)
}

func (c *canvas) String() string {
	styles := make(map[cell]lipgloss.Style)
	var out strings.Builder
	for y, row := range c.cells {
		if y > 0 {
			out.WriteByte('\n')
		}
		for start := 0; start < len(row); {
			key := cell{color: row[start].color, bold: row[start].bold}
			end := start
			var run strings.Builder
			for end < len(row) && row[end].color == key.color && row[end].bold == key.bold {
				run.WriteRune(row[end].r)
				end++
			}
			if key.color == "" && !key.bold {
				out.WriteString(run.String())
			} else {
				st, ok := styles[key]
				if !ok {
					st = lipgloss.NewStyle().Foreground(lipgloss.Color(key.color)).Bold(key.bold)
					styles[key] = st
				}
				out.WriteString(st.Render(run.String()))
			}
			start = end
		}
	}
	return out.String()
}

var (
	squareCorners  = [4]rune{'┌', '┐', '└', '┘'}
	roundedCorners = [4]rune{'╭', '╮', '╰', '╯'}
)

// toCell converts a screen position in pixels to a terminal cell.
func toCell(p world.Vec) (int, int) {
	return int(math.Floor(p.X / CellWidth)), int(math.Floor(p.Y / CellHeight))
}

// cellCenter converts a terminal cell to the screen position of its middle.
func cellCenter(x, y int) world.Vec {
	return world.Vec{X: (float64(x) + 0.5) * CellWidth, Y: (float64(y) + 0.5) * CellHeight}
}

// halfCells is how many cells a character of size pixels reaches out from its middle.
func halfCells(size float64) (int, int) {
	return max(1, int(size/CellWidth/2)), max(1, int(size/CellHeight/2))
}

// drawGround marks the map at fixed world intervals so movement is visible, tinted by
// the nearest NPC's color.
func drawGround(c *canvas, s engine.Snapshot, colors map[string]string) {
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			p := world.ScreenToWorld(cellCenter(x, y), s.Camera)
			gx := math.Mod(p.X-s.Offset.X, gridSpacing)
			gy := math.Mod(p.Y-s.Offset.Y, gridSpacing)
			if gx >= CellWidth || gy >= CellHeight {
				continue
			}
			c.set(x, y, '·', groundTint(cellCenter(x, y), s.NPCs, colors), false)
		}
	}
}

func groundTint(screen world.Vec, npcs []engine.NPCView, colors map[string]string) string {
	color := groundColor
	best := math.Inf(1)
	for _, n := range npcs {
		if d := screen.Dist(n.Screen); d < best {
			best = d
			color = colors[n.ID]
		}
	}
	return color
}

func (m WorldUI) npcSprite(n engine.NPCView) Sprite {
	s, _ := m.assets.Sprite(n.Portrait, n.ID)
	return s
}

func (m WorldUI) renderWorld() string {
	s := m.game.Snapshot()
	c := newCanvas(m.width, m.worldRows())

	colors := make(map[string]string, len(s.NPCs))
	for _, n := range s.NPCs {
		colors[n.ID] = n.AccentColor
		if colors[n.ID] == "" {
			colors[n.ID] = m.npcSprite(n).Color
		}
	}
	drawGround(c, s, colors)

	for _, n := range s.NPCs {
		sprite := m.npcSprite(n)
		cx, cy := toCell(n.Screen)
		hw, hh := halfCells(n.Size)
		c.box(cx-hw, cy-hh, cx+hw, cy+hh, squareCorners, colors[n.ID])
		c.set(cx, cy, []rune(sprite.Glyph)[0], sprite.Color, true)

		label := n.Name
		if n.Engaged {
			label += " ✓"
		}
		c.centered(cx, cy-hh-1, label, colors[n.ID], n.Nearby)
	}

	player, _ := m.assets.Sprite(s.Sprite, "player")
	px, py := toCell(s.PlayerAt)
	hw, hh := halfCells(s.Size)
	c.box(px-hw, py-hh, px+hw, py+hh, roundedCorners, playerColor)
	c.set(px, py, []rune(player.Glyph)[0], player.Color, true)

	if s.ShowPrompt {
		x, y := toCell(s.Prompt)
		name := s.Nearby
		if n := m.game.NPC(s.Nearby); n != nil {
			name = n.Name()
		}
		c.centered(x, y, fmt.Sprintf("[E] Talk to %s", name), promptColor, true)
	}

	if m.debug {
		for i, line := range m.debugLines(s) {
			c.text(1, i, line, debugColor, false)
		}
	}

	return c.String() + "\n" + m.renderStatus(s)
}

func (m WorldUI) renderStatus(s engine.Snapshot) string {
	left := fmt.Sprintf(" LOCAL LEGENDS  (%.0f, %.0f) %s", s.Player.X, s.Player.Y, s.Facing)
	backend := "online"
	if !s.Online {
		backend = "offline"
	}
	right := fmt.Sprintf("%s  arrows/wasd move · click walk · e talk · ` debug · ctrl+c quit ", backend)

	middle := ""
	if m.notice != "" {
		middle = "  " + m.notice
	}
	line := left + middle
	gap := m.width - lipgloss.Width(line) - lipgloss.Width(right)
	if gap > 0 {
		line += strings.Repeat(" ", gap) + right
	}
	return statusStyle.Render(truncate.String(line, uint(max(0, m.width))))
}

func (m WorldUI) debugLines(s engine.Snapshot) []string {
	v := m.bridge.View()
	nearby := "none"
	if s.Nearby != "" {
		nearby = s.Nearby
	}
	session := v.SessionID
	if len(session) > 8 {
		session = session[:8] + "..."
	}
	return []string{
		fmt.Sprintf("tick      %d", s.Tick),
		fmt.Sprintf("screen    %.0fx%.0f", s.Screen.W, s.Screen.H),
		fmt.Sprintf("extent    %.1fx%.1f", s.Extent.W, s.Extent.H),
		fmt.Sprintf("offset    (%.1f, %.1f)", s.Offset.X, s.Offset.Y),
		fmt.Sprintf("camera    (%.1f, %.1f)", s.Camera.X, s.Camera.Y),
		fmt.Sprintf("player    (%.1f, %.1f) size %.1f", s.Player.X, s.Player.Y, s.Size),
		fmt.Sprintf("moving    %t", s.Animating),
		fmt.Sprintf("nearby    %s", nearby),
		fmt.Sprintf("chat      %s", v.State),
		fmt.Sprintf("backend   online=%t ready=%t", v.Online, v.Ready),
		fmt.Sprintf("session   %s", session),
	}
}

// chatContent renders the transcript for the chat viewport.
func chatContent(v conversation.View, width, frame int) string {
	width = max(width, 20)
	var content strings.Builder

	for _, msg := range v.Messages {
		switch msg.Role {
		case chat.ChatRoleUser:
			content.WriteString(prefixed(userStyle.Render("You: "), msg.Content, width))
		case chat.ChatRoleAgent:
			content.WriteString(prefixed(speakerStyle.Render(v.NPCName+": "), narratorStyle.Render(msg.Content), width))
		case chat.ChatRoleSystem:
			content.WriteString(narratorStyle.Render(wordwrap.String(msg.Content, width)))
		case chat.ChatRoleError:
			content.WriteString(errorStyle.Render(wordwrap.String("Error: "+msg.Content, width)))
		}
		content.WriteString("\n\n")
	}

	switch v.State {
	case conversation.StateLoading:
		content.WriteString(loadingStyle.Render("Catching up with "+v.NPCName+"...") + "\n")
		content.WriteString(renderProgressBar(width, frame))
	case conversation.StateSending:
		content.WriteString(loadingStyle.Render(v.NPCName+" is thinking...") + "\n")
		content.WriteString(renderProgressBar(width, frame))
	}
	return content.String()
}

// prefixed wraps text to width with continuation lines indented under the prefix.
func prefixed(prefix, text string, width int) string {
	indent := lipgloss.Width(prefix)
	lines := strings.Split(wordwrap.String(text, max(10, width-indent)), "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = strings.Repeat(" ", indent) + lines[i]
	}
	return prefix + strings.Join(lines, "\n")
}

// renderProgressBar creates an animated progress bar for loading states
func renderProgressBar(width, frame int) string {
	usable := min(max(width, 10), 80)

	const totalFrames = 40
	frame %= totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressFrame advances every 200ms regardless of frame rate.
func progressFrame(now time.Time) int {
	return int(now.UnixMilli() / 200)
}

func (m WorldUI) renderChat() string {
	v := m.bridge.View()
	inner := m.chatWidth() - 6

	portrait, _ := m.assets.Sprite(v.Portrait, v.NPCID)
	accent := v.AccentColor
	if accent == "" {
		accent = portrait.Color
	}
	header := lipgloss.NewStyle().Foreground(lipgloss.Color(portrait.Color)).Bold(true).Render("["+portrait.Glyph+"]") +
		" " + speakerStyle.Render(v.NPCName)
	if v.Neighborhood != "" {
		header += promptStyle.Render(" · ") + lipgloss.NewStyle().Foreground(lipgloss.Color(accent)).Render(v.Neighborhood)
	}

	var content strings.Builder
	content.WriteString(header + "\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", inner)) + "\n")
	content.WriteString(m.chatViewport.View() + "\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", inner)) + "\n")

	if v.State == conversation.StateOpen && len(v.Choices) > 0 {
		for i, choice := range v.Choices {
			line := fmt.Sprintf("%d. %s", i+1, choice)
			content.WriteString(choiceStyle.Render(truncate.StringWithTail(line, uint(inner), "...")) + "\n")
		}
	}

	if v.InputEnabled {
		content.WriteString(m.textarea.View() + "\n")
	} else {
		content.WriteString(promptStyle.Render("(waiting...)") + "\n")
	}

	footer := "1-9 choose · tab type · enter send · ctrl+y copy · ctrl+r new session · esc leave"
	if m.notice != "" {
		footer = m.notice
	}
	content.WriteString(promptStyle.Render(truncate.String(footer, uint(inner))))

	modal := modalStyle.Width(m.chatWidth()).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m WorldUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave Local Legends?"))
	content.WriteString("\n\n")
	content.WriteString("Your session is saved. Conversations pick up where you left off.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to keep exploring, or Ctrl+C to force quit"))

	modal := modalStyle.Width(min(50, max(20, m.width-4))).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}
