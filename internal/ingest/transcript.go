// Package ingest imports exported interview transcripts (HTML) into
// research artifacts so they can be selected for insight generation.
package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/insightmap/insightmap/internal/model"
)

// minQuoteLen filters out navigation fragments and stray labels
const minQuoteLen = 20

// Importer extracts highlight records from transcript HTML
type Importer struct {
	positive []string
	negative []string
}

// NewImporter creates an importer with the default sentiment keyword lists
func NewImporter() *Importer {
	return &Importer{
		positive: []string{
			"love", "great", "easy", "helpful", "smooth", "fast",
			"intuitive", "excellent", "happy", "works well",
		},
		negative: []string{
			"confusing", "frustrat", "slow", "difficult", "broken", "annoying",
			"hard to", "can't", "cannot", "unclear", "problem", "stuck",
		},
	}
}

// ImportTranscript parses transcript HTML and returns an interview artifact.
// Block-level text runs become highlights in document order; the first
// heading, if any, becomes the artifact description.
func (im *Importer) ImportTranscript(name, htmlContent string) (*model.ResearchArtifact, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}

	var heading string
	var highlights []model.Highlight
	currentTopic := ""

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "h1":
				if heading == "" {
					heading = nodeText(n)
				}
			case "h2", "h3":
				currentTopic = nodeText(n)
			case "p", "li", "blockquote":
				text := nodeText(n)
				if len(text) >= minQuoteLen {
					highlights = append(highlights, model.Highlight{
						ID:        uuid.New().String(),
						Quote:     text,
						Topic:     currentTopic,
						Sentiment: im.sentiment(text),
					})
				}
				return // Don't descend into nested blocks twice
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(highlights) == 0 {
		return nil, fmt.Errorf("no highlights found in %s", name)
	}

	return &model.ResearchArtifact{
		ID:          uuid.New().String(),
		Type:        model.ArtifactInterview,
		Name:        name,
		Description: heading,
		CollectedAt: time.Now().UTC(),
		ItemCount:   len(highlights),
		Highlights:  highlights,
	}, nil
}

// sentiment tags a quote by keyword match; ties and no-matches are neutral
func (im *Importer) sentiment(text string) string {
	lower := strings.ToLower(text)
	pos, neg := 0, 0
	for _, k := range im.positive {
		if strings.Contains(lower, k) {
			pos++
		}
	}
	for _, k := range im.negative {
		if strings.Contains(lower, k) {
			neg++
		}
	}
	switch {
	case neg > pos:
		return "negative"
	case pos > neg:
		return "positive"
	default:
		return "neutral"
	}
}

// nodeText collects the visible text beneath a node
func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
