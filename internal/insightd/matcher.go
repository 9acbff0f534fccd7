package insightd

import (
	"sort"
	"strings"

	"github.com/insightmap/insightmap/internal/model"
)

// KeywordMatcher ranks journey-map cells for an insight by term overlap
// between the insight's text and the cell's text plus its stage and row
// names. Suggestions come back sorted descending by confidence.
type KeywordMatcher struct {
	maxSuggestions int
	minConfidence  float64
}

// NewKeywordMatcher creates a matcher with the default cutoffs
func NewKeywordMatcher() *KeywordMatcher {
	return &KeywordMatcher{maxSuggestions: 3, minConfidence: 0.2}
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "was": true, "are": true, "has": true, "have": true,
	"from": true, "into": true, "about": true, "around": true,
}

// MatchInsights attaches ranked placement suggestions to each insight,
// preserving insight identity. An insight whose text shares nothing with the
// map gets no suggestions at all.
func (m *KeywordMatcher) MatchInsights(insights []model.GeneratedInsight, journeyMap *model.JourneyMap) []model.GeneratedInsight {
	stages := make(map[string]string, len(journeyMap.Stages))
	for _, s := range journeyMap.Stages {
		stages[s.ID] = s.Name
	}
	rows := make(map[string]string, len(journeyMap.Rows))
	for _, r := range journeyMap.Rows {
		rows[r.ID] = r.Name
	}

	out := make([]model.GeneratedInsight, len(insights))
	copy(out, insights)

	for i := range out {
		insTokens := tokenize(insightText(&out[i]))
		if len(insTokens) == 0 {
			out[i].SuggestedPlacements = nil
			continue
		}

		var suggestions []model.PlacementSuggestion
		for _, cell := range journeyMap.Cells {
			cellTokens := tokenize(cell.Text + " " + stages[cell.StageID] + " " + rows[cell.RowID])
			matched := overlap(insTokens, cellTokens)
			if len(matched) == 0 {
				continue
			}
			confidence := float64(len(matched)) / float64(len(insTokens))
			if confidence > 0.95 {
				confidence = 0.95
			}
			if confidence < m.minConfidence {
				continue
			}
			suggestions = append(suggestions, model.PlacementSuggestion{
				CellID:     cell.ID,
				StageID:    cell.StageID,
				RowID:      cell.RowID,
				Confidence: confidence,
				Method:     model.MethodKeyword,
				Reason:     "shares terms: " + strings.Join(matched, ", "),
			})
		}

		sort.SliceStable(suggestions, func(a, b int) bool {
			return suggestions[a].Confidence > suggestions[b].Confidence
		})
		if len(suggestions) > m.maxSuggestions {
			suggestions = suggestions[:m.maxSuggestions]
		}
		out[i].SuggestedPlacements = suggestions
	}
	return out
}

// insightText is the searchable text of an insight
func insightText(ins *model.GeneratedInsight) string {
	var b strings.Builder
	b.WriteString(ins.Title)
	b.WriteString(" ")
	b.WriteString(ins.Summary)
	for _, ev := range ins.Evidence {
		b.WriteString(" ")
		b.WriteString(ev.Text)
	}
	return b.String()
}

// tokenize lowercases and splits text into distinct content words
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	seen := make(map[string]bool)
	var out []string
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// overlap returns the tokens of a that also appear in b, in a's order
func overlap(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	var out []string
	for _, t := range a {
		if set[t] {
			out = append(out, t)
		}
	}
	return out
}
