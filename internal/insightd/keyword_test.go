package insightd

import (
	"context"
	"testing"

	"github.com/insightmap/insightmap/internal/model"
)

func intPtr(n int) *int { return &n }

func testDataset() *model.CombinedDataset {
	return &model.CombinedDataset{
		ID:          "a1",
		Name:        "Onboarding research",
		PrimaryType: model.ArtifactInterview,
		Highlights: []model.Highlight{
			{ID: "h1", Quote: "The signup form was confusing", Topic: "Signup", Sentiment: "negative"},
			{ID: "h2", Quote: "I got stuck on the address step", Topic: "Signup", Sentiment: "negative"},
			{ID: "h3", Quote: "Checkout was really smooth", Topic: "Checkout", Sentiment: "positive"},
		},
		Responses: []model.Response{
			{ID: "r1", Score: intPtr(9), RespondentID: "p1"},
			{ID: "r2", Score: intPtr(3), Comment: "support never replied", RespondentID: "p2"},
			{ID: "r3", Score: intPtr(2), Comment: "too slow", RespondentID: "p3"},
		},
	}
}

func TestKeywordGenerator_GroupsByTopic(t *testing.T) {
	g := NewKeywordGenerator()

	insights, err := g.GenerateInsights(context.Background(), testDataset())
	if err != nil {
		t.Fatalf("GenerateInsights: %v", err)
	}

	// Signup, Checkout, plus the low-score response insight.
	if len(insights) != 3 {
		t.Fatalf("expected 3 insights, got %d", len(insights))
	}

	signup := insights[0]
	if signup.Title != "Pain points around Signup" {
		t.Errorf("unexpected title: %q", signup.Title)
	}
	if len(signup.Evidence) != 2 {
		t.Errorf("expected 2 evidence items, got %d", len(signup.Evidence))
	}
	if signup.Severity != 5 {
		t.Errorf("all-negative topic should be severity 5, got %d", signup.Severity)
	}
	if signup.GenerationMethod != model.MethodKeyword {
		t.Errorf("expected keyword method, got %s", signup.GenerationMethod)
	}

	checkout := insights[1]
	if checkout.Title != "Feedback on Checkout" {
		t.Errorf("unexpected title: %q", checkout.Title)
	}
	if checkout.Severity != 1 {
		t.Errorf("no-negative topic should be severity 1, got %d", checkout.Severity)
	}

	low := insights[2]
	if low.Title != "Low satisfaction scores" {
		t.Errorf("unexpected title: %q", low.Title)
	}
	// Max score 9 implies an 0-10 scale, so 3 and 2 are low but 9 is not.
	if len(low.Evidence) != 2 {
		t.Errorf("expected 2 low-score evidence items, got %d", len(low.Evidence))
	}
	if low.Evidence[0].Value == nil || *low.Evidence[0].Value != 3 {
		t.Errorf("expected score carried as evidence value, got %+v", low.Evidence[0].Value)
	}
}

func TestKeywordGenerator_ScoreUnitFromSurveyLikeSource(t *testing.T) {
	data := testDataset()
	data.Sources = []model.SourceRef{
		{ID: "a1", Name: "Interviews", Type: model.ArtifactInterview},
		{ID: "a2", Name: "Q1 NPS", Type: model.ArtifactNPS},
	}

	g := NewKeywordGenerator()
	insights, err := g.GenerateInsights(context.Background(), data)
	if err != nil {
		t.Fatalf("GenerateInsights: %v", err)
	}

	low := insights[len(insights)-1]
	if low.Title != "Low satisfaction scores" {
		t.Fatalf("unexpected title: %q", low.Title)
	}
	// The primary type is interview; the score unit comes from the nps source.
	for _, e := range low.Evidence {
		if e.Unit != string(model.ArtifactNPS) {
			t.Errorf("expected unit %q, got %q", model.ArtifactNPS, e.Unit)
		}
	}
}

func TestKeywordGenerator_EmptyDataset(t *testing.T) {
	g := NewKeywordGenerator()
	insights, err := g.GenerateInsights(context.Background(), &model.CombinedDataset{ID: "x", Name: "empty"})
	if err != nil {
		t.Fatalf("GenerateInsights: %v", err)
	}
	if len(insights) != 0 {
		t.Errorf("expected no insights from an empty dataset, got %d", len(insights))
	}
}

func testJourneyMap() *model.JourneyMap {
	return &model.JourneyMap{
		ID:   "jm1",
		Name: "Purchase journey",
		Stages: []model.JourneyStage{
			{ID: "s1", Name: "Signup"},
			{ID: "s2", Name: "Checkout"},
		},
		Rows: []model.JourneyRow{
			{ID: "r1", Name: "Pain points"},
			{ID: "r2", Name: "Touchpoints"},
		},
		Cells: []model.JourneyCell{
			{ID: "c1", StageID: "s1", RowID: "r1", Text: "signup form friction"},
			{ID: "c2", StageID: "s1", RowID: "r2", Text: "landing page"},
			{ID: "c3", StageID: "s2", RowID: "r1", Text: "payment errors"},
			{ID: "c4", StageID: "s2", RowID: "r2", Text: "checkout flow"},
		},
	}
}

func TestKeywordMatcher_RanksByOverlap(t *testing.T) {
	m := NewKeywordMatcher()

	insights := []model.GeneratedInsight{{
		TempID:  "t1",
		Title:   "Pain points around Signup",
		Summary: "signup form confusing",
	}}

	matched := m.MatchInsights(insights, testJourneyMap())
	if len(matched) != 1 {
		t.Fatalf("expected 1 insight back, got %d", len(matched))
	}

	got := matched[0]
	if got.TempID != "t1" {
		t.Error("matcher must preserve tempId")
	}
	if len(got.SuggestedPlacements) == 0 {
		t.Fatal("expected at least one suggestion")
	}
	if got.SuggestedPlacements[0].CellID != "c1" {
		t.Errorf("expected strongest overlap on c1, got %s", got.SuggestedPlacements[0].CellID)
	}
	for i := 0; i+1 < len(got.SuggestedPlacements); i++ {
		if got.SuggestedPlacements[i].Confidence < got.SuggestedPlacements[i+1].Confidence {
			t.Errorf("suggestions not sorted descending at %d", i)
		}
	}
	for _, p := range got.SuggestedPlacements {
		if p.Confidence < 0 || p.Confidence > 1 {
			t.Errorf("confidence out of range: %f", p.Confidence)
		}
		if p.Method != model.MethodKeyword {
			t.Errorf("expected keyword method, got %s", p.Method)
		}
	}
}

func TestKeywordMatcher_NoOverlapMeansNoSuggestions(t *testing.T) {
	m := NewKeywordMatcher()

	insights := []model.GeneratedInsight{{
		TempID: "t1",
		Title:  "Xylophone maintenance",
	}}

	matched := m.MatchInsights(insights, testJourneyMap())
	if len(matched[0].SuggestedPlacements) != 0 {
		t.Errorf("expected no suggestions, got %d", len(matched[0].SuggestedPlacements))
	}
}
