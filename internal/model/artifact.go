package model

import "time"

// ArtifactType classifies a research artifact by collection method
type ArtifactType string

const (
	ArtifactInterview ArtifactType = "interview" // Interview transcript highlights
	ArtifactSurvey    ArtifactType = "survey"    // Free-form survey responses
	ArtifactNPS       ArtifactType = "nps"       // Net Promoter Score responses
	ArtifactCSAT      ArtifactType = "csat"      // Customer Satisfaction responses
	ArtifactCES       ArtifactType = "ces"       // Customer Effort Score responses
)

// IsSurveyLike reports whether the type carries response records rather than
// interview highlights
func (t ArtifactType) IsSurveyLike() bool {
	switch t {
	case ArtifactSurvey, ArtifactNPS, ArtifactCSAT, ArtifactCES:
		return true
	default:
		return false
	}
}

// Highlight is one annotated quote pulled from an interview transcript
type Highlight struct {
	ID        string   `json:"id"`
	Quote     string   `json:"quote"`
	Topic     string   `json:"topic,omitempty"`
	Sentiment string   `json:"sentiment,omitempty"` // positive, neutral, negative
	Tags      []string `json:"tags,omitempty"`
}

// Response is one survey/NPS/CSAT/CES submission
type Response struct {
	ID           string    `json:"id"`
	Score        *int      `json:"score,omitempty"` // Absent for free-form survey answers
	Comment      string    `json:"comment,omitempty"`
	RespondentID string    `json:"respondentId"`
	SubmittedAt  time.Time `json:"submittedAt"`
	Context      string    `json:"context,omitempty"` // e.g., which touchpoint prompted the survey
}

// ResearchArtifact is one collected research dataset (an interview's
// highlights or a survey's responses)
type ResearchArtifact struct {
	ID          string       `json:"id"`
	Type        ArtifactType `json:"type"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	CollectedAt time.Time    `json:"collectedAt"`
	ItemCount   int          `json:"itemCount"` // Set at creation; not re-validated after merge
	FolderID    string       `json:"folderId,omitempty"`

	Highlights []Highlight `json:"highlights,omitempty"` // Interview payload
	Responses  []Response  `json:"responses,omitempty"`  // Survey-like payload
}

// SourceRef records the provenance of one constituent of a combined dataset
type SourceRef struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Type ArtifactType `json:"type"`
}

// CombinedDataset is the merge of one or more research artifacts for joint
// analysis. Merging is non-destructive concatenation: no de-duplication, no
// reordering.
type CombinedDataset struct {
	ID          string       `json:"id"`   // Synthetic, derived from constituent ids
	Name        string       `json:"name"` // Human-readable summary of sources
	PrimaryType ArtifactType `json:"primaryType"`
	Sources     []SourceRef  `json:"sources"`

	Highlights []Highlight `json:"highlights,omitempty"`
	Responses  []Response  `json:"responses,omitempty"`
}
