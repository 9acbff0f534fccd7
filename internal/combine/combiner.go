// Package combine merges selected research artifacts into one dataset for
// joint analysis. Merging is pure concatenation: callers keep ownership of
// their artifacts and nothing is de-duplicated or reordered.
package combine

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/insightmap/insightmap/internal/model"
)

// maxNameLen caps the source list embedded in a combined dataset's display name.
const maxNameLen = 100

// Combine merges one or more research artifacts into a CombinedDataset.
//
// With a single source the artifact is returned as-is on the combined
// contract: same id, name, and payload, no synthetic wrapper. With multiple
// sources the result carries a synthetic id, a display name embedding the
// source count, the first source's type as primary, and the concatenation of
// all highlights and responses in input order.
//
// sources must be non-empty; the caller guarantees its entries are fetched,
// validated artifacts.
func Combine(sources []*model.ResearchArtifact) *model.CombinedDataset {
	if len(sources) == 1 {
		return fromSingle(sources[0])
	}

	ids := make([]string, 0, len(sources))
	names := make([]string, 0, len(sources))
	refs := make([]model.SourceRef, 0, len(sources))
	var highlights []model.Highlight
	var responses []model.Response

	for _, src := range sources {
		ids = append(ids, src.ID)
		names = append(names, src.Name)
		refs = append(refs, model.SourceRef{ID: src.ID, Name: src.Name, Type: src.Type})
		highlights = append(highlights, src.Highlights...)
		responses = append(responses, src.Responses...)
	}

	return &model.CombinedDataset{
		ID:          "combined:" + strings.Join(ids, "+"),
		Name:        displayName(len(sources), names),
		PrimaryType: sources[0].Type,
		Sources:     refs,
		Highlights:  highlights,
		Responses:   responses,
	}
}

// fromSingle lifts a lone artifact onto the combined contract without a
// merge wrapper: downstream code treats one and many sources uniformly.
func fromSingle(src *model.ResearchArtifact) *model.CombinedDataset {
	return &model.CombinedDataset{
		ID:          src.ID,
		Name:        src.Name,
		PrimaryType: src.Type,
		Sources:     []model.SourceRef{{ID: src.ID, Name: src.Name, Type: src.Type}},
		Highlights:  append([]model.Highlight(nil), src.Highlights...),
		Responses:   append([]model.Response(nil), src.Responses...),
	}
}

// displayName builds "N sources: a, b, c", truncating the joined name list
// at maxNameLen runes with an ellipsis marker. Truncation counts runes, not
// bytes, so a multi-byte source name is never split mid-rune.
func displayName(count int, names []string) string {
	joined := strings.Join(names, ", ")
	if utf8.RuneCountInString(joined) > maxNameLen {
		runes := []rune(joined)
		joined = string(runes[:maxNameLen]) + "…"
	}
	return strconv.Itoa(count) + " sources: " + joined
}
