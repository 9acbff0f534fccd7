package insightd

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/insightmap/insightmap/internal/model"
)

// KeywordGenerator builds insights by grouping highlights per topic and
// flagging low-score survey responses. No network calls; this is the
// fallback method when no AI provider is configured.
type KeywordGenerator struct{}

// NewKeywordGenerator creates a keyword generator
func NewKeywordGenerator() *KeywordGenerator {
	return &KeywordGenerator{}
}

// Name returns the provider name
func (g *KeywordGenerator) Name() string { return "keyword" }

// GenerateInsights produces one insight per highlight topic plus one for
// low-score responses, in stable order
func (g *KeywordGenerator) GenerateInsights(_ context.Context, data *model.CombinedDataset) ([]model.GeneratedInsight, error) {
	var insights []model.GeneratedInsight

	insights = append(insights, g.fromHighlights(data)...)
	if low := g.fromResponses(data); low != nil {
		insights = append(insights, *low)
	}
	return insights, nil
}

// fromHighlights groups interview highlights by topic, first appearance first
func (g *KeywordGenerator) fromHighlights(data *model.CombinedDataset) []model.GeneratedInsight {
	groups := make(map[string][]model.Highlight)
	var order []string
	for _, h := range data.Highlights {
		topic := h.Topic
		if topic == "" {
			topic = "General"
		}
		if _, seen := groups[topic]; !seen {
			order = append(order, topic)
		}
		groups[topic] = append(groups[topic], h)
	}

	var out []model.GeneratedInsight
	for _, topic := range order {
		hs := groups[topic]
		neg := 0
		for _, h := range hs {
			if h.Sentiment == "negative" {
				neg++
			}
		}

		title := fmt.Sprintf("Feedback on %s", topic)
		if neg*2 > len(hs) {
			title = fmt.Sprintf("Pain points around %s", topic)
		}

		evidence := make([]model.EvidenceItem, len(hs))
		for i, h := range hs {
			evidence[i] = model.EvidenceItem{
				ID:     uuid.New().String(),
				Source: data.Name,
				Type:   model.ArtifactInterview,
				Text:   h.Quote,
			}
		}

		out = append(out, model.GeneratedInsight{
			TempID:           uuid.New().String(),
			Title:            title,
			Summary:          fmt.Sprintf("%d highlights mention %s (%d negative)", len(hs), topic, neg),
			Severity:         severityFromRatio(neg, len(hs)),
			Evidence:         evidence,
			GenerationMethod: model.MethodKeyword,
		})
	}
	return out
}

// fromResponses flags low-score responses, inferring the scale from the data:
// scores above 5 anywhere mean a 0-10 scale (NPS), otherwise 1-5 (CSAT/CES).
func (g *KeywordGenerator) fromResponses(data *model.CombinedDataset) *model.GeneratedInsight {
	maxScore := 0
	scored := 0
	for _, r := range data.Responses {
		if r.Score == nil {
			continue
		}
		scored++
		if *r.Score > maxScore {
			maxScore = *r.Score
		}
	}
	if scored == 0 {
		return nil
	}

	threshold := 2 // 1-5 scale
	if maxScore > 5 {
		threshold = 6 // 0-10 scale
	}

	// In a mixed dataset the primary type can be interview; the score unit
	// comes from the first survey-like source instead.
	scoreType := data.PrimaryType
	if !scoreType.IsSurveyLike() {
		for _, ref := range data.Sources {
			if ref.Type.IsSurveyLike() {
				scoreType = ref.Type
				break
			}
		}
	}

	var evidence []model.EvidenceItem
	for _, r := range data.Responses {
		if r.Score == nil || *r.Score > threshold {
			continue
		}
		value := float64(*r.Score)
		evidence = append(evidence, model.EvidenceItem{
			ID:     uuid.New().String(),
			Source: data.Name,
			Type:   scoreType,
			Text:   r.Comment,
			Value:  &value,
			Unit:   string(scoreType),
		})
	}
	if len(evidence) == 0 {
		return nil
	}

	return &model.GeneratedInsight{
		TempID:           uuid.New().String(),
		Title:            "Low satisfaction scores",
		Summary:          fmt.Sprintf("%d of %d scored responses fall in the low band", len(evidence), scored),
		Severity:         severityFromRatio(len(evidence), scored),
		Evidence:         evidence,
		GenerationMethod: model.MethodKeyword,
	}
}

// severityFromRatio maps a bad/total ratio onto 1..5
func severityFromRatio(bad, total int) int {
	if total == 0 {
		return 1
	}
	s := 1 + (4*bad+total/2)/total // Rounded 1 + 4*ratio
	if s < 1 {
		s = 1
	}
	if s > 5 {
		s = 5
	}
	return s
}
