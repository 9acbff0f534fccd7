package model

// JourneyMap is the minimal journey-map structure the pipeline needs:
// enough to match insights against and to attach accepted insights to.
// Rendering and editing live elsewhere.
type JourneyMap struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Stages   []JourneyStage  `json:"stages"`
	Rows     []JourneyRow    `json:"rows"`
	Cells    []JourneyCell   `json:"cells"`
	Insights []PlacedInsight `json:"insights,omitempty"`
}

// PlacedInsight is an accepted insight promoted into the map's collection.
// Unlike a GeneratedInsight's tempId, its ID is permanent.
type PlacedInsight struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Summary  string           `json:"summary,omitempty"`
	Severity int              `json:"severity"`
	Evidence []EvidenceItem   `json:"evidence,omitempty"`
	Method   GenerationMethod `json:"method"`
	CellID   string           `json:"cellId,omitempty"` // Empty if accepted without a placement
}

// JourneyStage is one column of the map (a phase of the customer journey)
type JourneyStage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// JourneyRow is one lane of the map (e.g., "touchpoints", "pain points")
type JourneyRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// JourneyCell is the intersection of a stage and a row
type JourneyCell struct {
	ID       string   `json:"id"`
	StageID  string   `json:"stageId"`
	RowID    string   `json:"rowId"`
	Text     string   `json:"text,omitempty"`
	Insights []string `json:"insights,omitempty"` // IDs of attached insights
}

// Cell looks up a cell by id, or nil if absent
func (m *JourneyMap) Cell(id string) *JourneyCell {
	for i := range m.Cells {
		if m.Cells[i].ID == id {
			return &m.Cells[i]
		}
	}
	return nil
}
