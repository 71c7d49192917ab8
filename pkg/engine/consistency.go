package engine

// EnforceSizes forces every NPC to the player's size. Sizes are normally kept in step
// at map load, roster load and resize; this pass repairs anything that slipped
// through. It returns the number of NPCs corrected.
func (g *Game) EnforceSizes() int {
	fixed := 0
	for _, n := range g.NPCs {
		if n.Size != g.Player.Size {
			n.Size = g.Player.Size
			fixed++
		}
	}
	if fixed > 0 {
		g.logger.Warn("Corrected NPC sizes", "count", fixed, "size", g.Player.Size, "tick", g.tick)
	}
	return fixed
}
