package chat

// GridPosition places an NPC on a 0..100 grid over the map.
type GridPosition struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// NPCInfo is one entry of GET /api/npcs.
type NPCInfo struct {
	Name         string        `json:"name" yaml:"name"`
	Image        string        `json:"image" yaml:"image"`
	Neighborhood string        `json:"neighborhood,omitempty" yaml:"neighborhood,omitempty"`
	AreaColor    string        `json:"area_color,omitempty" yaml:"area_color,omitempty"`
	Position     *GridPosition `json:"position,omitempty" yaml:"position,omitempty"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
}

// NPCListResponse is returned from GET /api/npcs.
type NPCListResponse struct {
	NPCs  []NPCInfo `json:"npcs"`
	Total int       `json:"total"`
}
