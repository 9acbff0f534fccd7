package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/insightmap/insightmap/internal/model"
)

const sampleTranscript = `<html><body>
<h1>Onboarding interview — participant 7</h1>
<h2>Signup</h2>
<p>The signup form was confusing and I got stuck on the address step.</p>
<p>ok</p>
<h2>First purchase</h2>
<blockquote>Checkout itself was really smooth, I love the saved card option.</blockquote>
<script>console.log("tracking")</script>
</body></html>`

func TestImportTranscript(t *testing.T) {
	im := NewImporter()

	artifact, err := im.ImportTranscript("participant-7", sampleTranscript)
	if err != nil {
		t.Fatalf("ImportTranscript: %v", err)
	}

	if artifact.Type != model.ArtifactInterview {
		t.Errorf("expected interview artifact, got %s", artifact.Type)
	}
	if artifact.Description != "Onboarding interview — participant 7" {
		t.Errorf("unexpected description: %q", artifact.Description)
	}
	if len(artifact.Highlights) != 2 {
		t.Fatalf("expected 2 highlights (short fragments skipped), got %d", len(artifact.Highlights))
	}
	if artifact.ItemCount != 2 {
		t.Errorf("item count must equal payload size at creation, got %d", artifact.ItemCount)
	}

	first := artifact.Highlights[0]
	if first.Topic != "Signup" {
		t.Errorf("expected topic from preceding heading, got %q", first.Topic)
	}
	if first.Sentiment != "negative" {
		t.Errorf("expected negative sentiment, got %q", first.Sentiment)
	}

	second := artifact.Highlights[1]
	if second.Topic != "First purchase" {
		t.Errorf("expected topic to follow headings, got %q", second.Topic)
	}
	if second.Sentiment != "positive" {
		t.Errorf("expected positive sentiment, got %q", second.Sentiment)
	}
}

func TestImportTranscript_NoHighlights(t *testing.T) {
	im := NewImporter()
	if _, err := im.ImportTranscript("empty", "<html><body><p>hi</p></body></html>"); err == nil {
		t.Fatal("expected error for a transcript with no usable highlights")
	}
}

func TestBatchImporter(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "p1.html")
	bad := filepath.Join(dir, "missing.html")
	if err := os.WriteFile(good, []byte(sampleTranscript), 0644); err != nil {
		t.Fatal(err)
	}

	b := NewBatchImporter(NewImporter(), 2)
	results := b.ImportFiles(context.Background(), []string{good, bad})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Artifact == nil {
		t.Errorf("expected first file to import, got %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Error("expected error for missing file")
	}
}
