package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/insightmap/insightmap/internal/client"
	"github.com/insightmap/insightmap/internal/model"
)

type genFunc func(ctx context.Context, data *model.CombinedDataset, jm *model.JourneyMap) ([]model.GeneratedInsight, error)

func (f genFunc) Generate(ctx context.Context, data *model.CombinedDataset, jm *model.JourneyMap) ([]model.GeneratedInsight, error) {
	return f(ctx, data, jm)
}

type matchFunc func(ctx context.Context, insights []model.GeneratedInsight, jm *model.JourneyMap) ([]model.GeneratedInsight, error)

func (f matchFunc) Match(ctx context.Context, insights []model.GeneratedInsight, jm *model.JourneyMap) ([]model.GeneratedInsight, error) {
	return f(ctx, insights, jm)
}

func drafts() []model.GeneratedInsight {
	return []model.GeneratedInsight{
		{TempID: "t1", Title: "Signup friction", Severity: 4},
		{TempID: "t2", Title: "Slow support replies", Severity: 3},
	}
}

func okGenerator() Generator {
	return genFunc(func(context.Context, *model.CombinedDataset, *model.JourneyMap) ([]model.GeneratedInsight, error) {
		return drafts(), nil
	})
}

func okMatcher() Matcher {
	return matchFunc(func(_ context.Context, insights []model.GeneratedInsight, _ *model.JourneyMap) ([]model.GeneratedInsight, error) {
		out := make([]model.GeneratedInsight, len(insights))
		copy(out, insights)
		for i := range out {
			out[i].SuggestedPlacements = []model.PlacementSuggestion{
				{CellID: "c1", StageID: "s1", RowID: "r1", Confidence: 0.8, Method: model.MethodKeyword},
			}
		}
		return out, nil
	})
}

func rateLimitErr(resetAt time.Time) error {
	return &client.RateLimitError{Info: model.RateLimitInfo{
		ResetAt:   resetAt,
		Limit:     10,
		Remaining: 0,
		Message:   "quota exhausted",
	}}
}

func dataset() *model.CombinedDataset { return &model.CombinedDataset{ID: "a1", Name: "Interviews"} }
func journey() *model.JourneyMap     { return &model.JourneyMap{ID: "jm1"} }

func TestOrchestrator_HappyPath(t *testing.T) {
	o := New(okGenerator(), okMatcher())

	if err := o.Start(context.Background(), dataset(), journey()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap, err := o.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if snap.Stage != StageComplete {
		t.Fatalf("expected complete, got %s (err %q)", snap.Stage, snap.LastError)
	}
	if snap.Progress != 100 {
		t.Errorf("expected progress 100, got %d", snap.Progress)
	}

	result, ok := o.Result()
	if !ok {
		t.Fatal("expected result after complete")
	}
	if !result.Success || len(result.Insights) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Insights[0].TempID != "t1" || result.Insights[1].TempID != "t2" {
		t.Error("matching must preserve insight identity")
	}
	if len(result.Insights[0].SuggestedPlacements) == 0 {
		t.Error("expected placements attached by matcher")
	}
}

func TestOrchestrator_ProgressMonotone(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	o := New(okGenerator(), okMatcher(), WithNotify(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s.Progress)
		mu.Unlock()
	}))

	_ = o.Start(context.Background(), dataset(), journey())
	if _, err := o.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("progress regressed: %v", seen)
		}
	}
}

func TestOrchestrator_GenerationRateLimitLandsInRateLimited(t *testing.T) {
	resetAt := time.Now().Add(time.Minute)
	gen := genFunc(func(context.Context, *model.CombinedDataset, *model.JourneyMap) ([]model.GeneratedInsight, error) {
		return nil, rateLimitErr(resetAt)
	})

	o := New(gen, okMatcher())
	_ = o.Start(context.Background(), dataset(), journey())
	snap, _ := o.Wait(context.Background())

	if snap.Stage != StageRateLimited {
		t.Fatalf("expected rate_limited, got %s", snap.Stage)
	}
	if snap.RateLimit == nil || snap.RateLimit.Limit != 10 {
		t.Fatalf("expected captured rate-limit info, got %+v", snap.RateLimit)
	}
	if snap.RemainingWait <= 0 {
		t.Error("expected a positive remaining wait")
	}
	if o.RetryAvailable() {
		t.Error("retry must be disabled while the wait is positive")
	}
	if err := o.Retry(context.Background()); !errors.Is(err, ErrRetryNotReady) {
		t.Errorf("expected ErrRetryNotReady, got %v", err)
	}
}

func TestOrchestrator_GenerationFailureLandsInError(t *testing.T) {
	gen := genFunc(func(context.Context, *model.CombinedDataset, *model.JourneyMap) ([]model.GeneratedInsight, error) {
		return nil, errors.New("no insights could be generated from the selected sources")
	})

	o := New(gen, okMatcher())
	_ = o.Start(context.Background(), dataset(), journey())
	snap, _ := o.Wait(context.Background())

	if snap.Stage != StageError {
		t.Fatalf("expected error stage, got %s", snap.Stage)
	}
	if snap.LastError == "" {
		t.Error("expected a human-readable message")
	}
	if !o.RetryAvailable() {
		t.Error("retry must be available in the error stage")
	}
}

func TestOrchestrator_MatchingRateLimit(t *testing.T) {
	match := matchFunc(func(context.Context, []model.GeneratedInsight, *model.JourneyMap) ([]model.GeneratedInsight, error) {
		return nil, rateLimitErr(time.Now().Add(time.Minute))
	})

	o := New(okGenerator(), match)
	_ = o.Start(context.Background(), dataset(), journey())
	snap, _ := o.Wait(context.Background())

	if snap.Stage != StageRateLimited {
		t.Fatalf("expected rate_limited from matching, got %s", snap.Stage)
	}
}

func TestOrchestrator_RetryRestartsFromScratch(t *testing.T) {
	var calls int32
	gen := genFunc(func(context.Context, *model.CombinedDataset, *model.JourneyMap) ([]model.GeneratedInsight, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("transient failure")
		}
		return drafts(), nil
	})

	o := New(gen, okMatcher())
	_ = o.Start(context.Background(), dataset(), journey())
	snap, _ := o.Wait(context.Background())
	if snap.Stage != StageError {
		t.Fatalf("expected error, got %s", snap.Stage)
	}

	if err := o.Retry(context.Background()); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	snap, _ = o.Wait(context.Background())
	if snap.Stage != StageComplete {
		t.Fatalf("expected complete after retry, got %s", snap.Stage)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected generation to run again from scratch, got %d calls", n)
	}
}

func TestOrchestrator_RetryAfterRateLimitResetUsingClock(t *testing.T) {
	now := time.Now()
	var mu sync.Mutex
	current := now
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	var calls int32
	gen := genFunc(func(context.Context, *model.CombinedDataset, *model.JourneyMap) ([]model.GeneratedInsight, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, rateLimitErr(now.Add(30 * time.Second))
		}
		return drafts(), nil
	})

	o := New(gen, okMatcher(), WithClock(clock))
	_ = o.Start(context.Background(), dataset(), journey())
	if snap, _ := o.Wait(context.Background()); snap.Stage != StageRateLimited {
		t.Fatalf("expected rate_limited, got %s", snap.Stage)
	}
	if o.RetryAvailable() {
		t.Fatal("retry must be gated before the reset time")
	}

	mu.Lock()
	current = now.Add(31 * time.Second)
	mu.Unlock()

	if !o.RetryAvailable() {
		t.Fatal("retry must be enabled once the wait reaches zero")
	}
	if err := o.Retry(context.Background()); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if snap, _ := o.Wait(context.Background()); snap.Stage != StageComplete {
		t.Fatalf("expected complete, got %s", snap.Stage)
	}
}

func TestOrchestrator_CountdownTicksDownToZero(t *testing.T) {
	gen := genFunc(func(context.Context, *model.CombinedDataset, *model.JourneyMap) ([]model.GeneratedInsight, error) {
		return nil, rateLimitErr(time.Now().Add(150 * time.Millisecond))
	})

	var mu sync.Mutex
	var waits []time.Duration
	o := New(gen, okMatcher(),
		WithTick(20*time.Millisecond),
		WithNotify(func(s Snapshot) {
			if s.Stage == StageRateLimited {
				mu.Lock()
				waits = append(waits, s.RemainingWait)
				mu.Unlock()
			}
		}))

	_ = o.Start(context.Background(), dataset(), journey())
	_, _ = o.Wait(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.RetryAvailable() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !o.RetryAvailable() {
		t.Fatal("retry never became available after the reset time passed")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(waits) < 2 {
		t.Fatalf("expected periodic countdown updates, got %d", len(waits))
	}
	if waits[len(waits)-1] != 0 {
		t.Errorf("expected final countdown update of zero, got %v", waits[len(waits)-1])
	}
}

func TestOrchestrator_AbandonDropsLateResponse(t *testing.T) {
	release := make(chan struct{})
	gen := genFunc(func(ctx context.Context, _ *model.CombinedDataset, _ *model.JourneyMap) ([]model.GeneratedInsight, error) {
		<-release
		return drafts(), nil
	})

	o := New(gen, okMatcher())
	_ = o.Start(context.Background(), dataset(), journey())

	o.Abandon()
	close(release) // The generator now returns into an abandoned run

	time.Sleep(50 * time.Millisecond)
	if got := o.Status().Stage; got != StageIdle {
		t.Fatalf("late response must not mutate an abandoned session, stage is %s", got)
	}
}

func TestOrchestrator_StartTwiceRejected(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	gen := genFunc(func(context.Context, *model.CombinedDataset, *model.JourneyMap) ([]model.GeneratedInsight, error) {
		<-block
		return drafts(), nil
	})

	o := New(gen, okMatcher())
	if err := o.Start(context.Background(), dataset(), journey()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := o.Start(context.Background(), dataset(), journey()); err == nil {
		t.Fatal("second Start must be rejected while a run is active")
	}
}

func TestTransition_Table(t *testing.T) {
	valid := []struct {
		from Stage
		ev   Event
		to   Stage
	}{
		{StageIdle, EventStart, StageAnalyzing},
		{StageAnalyzing, EventAnalyzed, StageGenerating},
		{StageGenerating, EventGenerated, StageMatching},
		{StageMatching, EventMatched, StageComplete},
		{StageGenerating, EventRateLimited, StageRateLimited},
		{StageMatching, EventRateLimited, StageRateLimited},
		{StageGenerating, EventFailed, StageError},
		{StageMatching, EventFailed, StageError},
		{StageError, EventRetry, StageAnalyzing},
		{StageRateLimited, EventRetry, StageAnalyzing},
	}
	for _, tc := range valid {
		got, err := Transition(tc.from, tc.ev)
		if err != nil || got != tc.to {
			t.Errorf("Transition(%s, %s) = (%s, %v), want %s", tc.from, tc.ev, got, err, tc.to)
		}
	}

	invalid := []struct {
		from Stage
		ev   Event
	}{
		{StageComplete, EventGenerated},
		{StageComplete, EventRetry},
		{StageAnalyzing, EventMatched},
		{StageIdle, EventRetry},
		{StageError, EventFailed},
		{StageRateLimited, EventRateLimited},
	}
	for _, tc := range invalid {
		if _, err := Transition(tc.from, tc.ev); err == nil {
			t.Errorf("Transition(%s, %s) must be rejected", tc.from, tc.ev)
		}
	}
}
