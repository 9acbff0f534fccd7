package model

// GenerationMethod identifies how an insight or placement was produced
type GenerationMethod string

const (
	MethodAI      GenerationMethod = "ai"      // LLM-backed generation/matching
	MethodKeyword GenerationMethod = "keyword" // Heuristic keyword generation/matching
)

// EvidenceItem is a single quote, score, or data point supporting an insight,
// tagged with its originating source
type EvidenceItem struct {
	ID     string       `json:"id"`
	Source string       `json:"source"` // Name of the artifact it came from
	Type   ArtifactType `json:"type"`
	Text   string       `json:"text,omitempty"`  // Quote or comment
	Value  *float64     `json:"value,omitempty"` // Numeric score, if any
	Unit   string       `json:"unit,omitempty"`  // e.g., "nps", "csat"
}

// PlacementSuggestion is one candidate journey-map location for an insight
type PlacementSuggestion struct {
	CellID     string           `json:"cellId"`
	StageID    string           `json:"stageId"`
	RowID      string           `json:"rowId"`
	Confidence float64          `json:"confidence"` // In [0, 1]
	Method     GenerationMethod `json:"method"`
	Reason     string           `json:"reason,omitempty"`
}

// GeneratedInsight is a candidate insight produced by the generation service.
// TempID is process-local: it is never persisted unless the insight is
// accepted into a journey map.
//
// Invariant: SuggestedPlacements is sorted descending by confidence; the
// first entry is the default placement unless the reviewer overrides it.
type GeneratedInsight struct {
	TempID              string                `json:"tempId"`
	Title               string                `json:"title"`
	Summary             string                `json:"summary"`
	Severity            int                   `json:"severity"` // 1..5
	Evidence            []EvidenceItem        `json:"evidence"`
	GenerationMethod    GenerationMethod      `json:"generationMethod"`
	SuggestedPlacements []PlacementSuggestion `json:"suggestedPlacements,omitempty"`
}

// TopPlacement returns the highest-confidence suggestion, or nil if the
// matcher produced none
func (g *GeneratedInsight) TopPlacement() *PlacementSuggestion {
	if len(g.SuggestedPlacements) == 0 {
		return nil
	}
	return &g.SuggestedPlacements[0]
}

// ConfidenceBand is a coarse display bucket derived from a placement's
// numeric confidence
type ConfidenceBand string

const (
	BandHigh   ConfidenceBand = "high"   // > 0.7
	BandMedium ConfidenceBand = "medium" // [0.5, 0.7]
	BandLow    ConfidenceBand = "low"    // < 0.5, or no suggestion at all
)

// Band buckets the insight by its top suggestion's confidence. An insight
// with no suggestions is low.
func (g *GeneratedInsight) Band() ConfidenceBand {
	top := g.TopPlacement()
	if top == nil {
		return BandLow
	}
	switch {
	case top.Confidence > 0.7:
		return BandHigh
	case top.Confidence >= 0.5:
		return BandMedium
	default:
		return BandLow
	}
}
