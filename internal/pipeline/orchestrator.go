// Package pipeline drives the three-stage insight run: analyze the combined
// dataset, generate draft insights, match them onto journey-map cells. It
// owns retry and rate-limit state. Retrying never resumes a failed run: the
// client has no visibility into server-side quota beyond the last response,
// so every retry restarts from analyzing.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/insightmap/insightmap/internal/client"
	"github.com/insightmap/insightmap/internal/model"
)

// genericFailure is shown when a failure carries no message of its own
const genericFailure = "insight generation failed, please try again"

// Generator produces draft insights from a combined dataset
type Generator interface {
	Generate(ctx context.Context, data *model.CombinedDataset, journeyMap *model.JourneyMap) ([]model.GeneratedInsight, error)
}

// Matcher ranks journey-map placements for draft insights
type Matcher interface {
	Match(ctx context.Context, insights []model.GeneratedInsight, journeyMap *model.JourneyMap) ([]model.GeneratedInsight, error)
}

// Snapshot is a point-in-time view of the session for display purposes
type Snapshot struct {
	Stage         Stage
	Progress      int // 0-100, advisory, monotone within a run
	LastError     string
	RateLimit     *model.RateLimitInfo
	RemainingWait time.Duration // Nonzero only while rate limited
}

// ErrRetryNotReady is returned when retry is invoked before the reported
// rate-limit reset time has passed
var ErrRetryNotReady = errors.New("rate limit has not reset yet")

// Orchestrator runs the pipeline and holds the state of the current session
type Orchestrator struct {
	generator    Generator
	matcher      Matcher
	analyzeDelay time.Duration
	tick         time.Duration
	now          func() time.Time
	notify       func(Snapshot)

	mu         sync.Mutex
	stage      Stage
	progress   int
	lastErr    string
	rateLimit  *model.RateLimitInfo
	insights   []model.GeneratedInsight
	dataset    *model.CombinedDataset
	journeyMap *model.JourneyMap
	run        int // Generation counter: late responses from an abandoned run are dropped
	done       chan struct{}
	cancel     context.CancelFunc
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithAnalyzeDelay sets the local staging pause before generation
func WithAnalyzeDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.analyzeDelay = d }
}

// WithTick sets the rate-limit countdown refresh interval
func WithTick(d time.Duration) Option {
	return func(o *Orchestrator) { o.tick = d }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithNotify registers a callback invoked on every state change and on each
// countdown tick. The callback receives a copied snapshot and runs with the
// orchestrator lock held, so it must not call back into the orchestrator.
func WithNotify(fn func(Snapshot)) Option {
	return func(o *Orchestrator) { o.notify = fn }
}

// New creates an orchestrator in the idle stage
func New(gen Generator, match Matcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		generator: gen,
		matcher:   match,
		tick:      time.Second,
		now:       time.Now,
		stage:     StageIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start begins the first run over the given inputs. It returns immediately;
// the run proceeds in the background. Use Wait or the notify callback to
// observe completion.
func (o *Orchestrator) Start(ctx context.Context, data *model.CombinedDataset, journeyMap *model.JourneyMap) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	next, err := Transition(o.stage, EventStart)
	if err != nil {
		return err
	}
	o.dataset = data
	o.journeyMap = journeyMap
	o.beginLocked(ctx, next)
	return nil
}

// Retry restarts the whole pipeline from analyzing after an error or a rate
// limit. While rate limited it is gated on the reported reset time and
// returns ErrRetryNotReady until the wait reaches zero.
func (o *Orchestrator) Retry(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stage == StageRateLimited && o.remainingLocked() > 0 {
		return ErrRetryNotReady
	}
	next, err := Transition(o.stage, EventRetry)
	if err != nil {
		return err
	}
	o.beginLocked(ctx, next)
	return nil
}

// RetryAvailable reports whether Retry would be accepted right now
func (o *Orchestrator) RetryAvailable() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.stage {
	case StageError:
		return true
	case StageRateLimited:
		return o.remainingLocked() == 0
	default:
		return false
	}
}

// Abandon discards the session: any in-flight request's eventual result is
// dropped, the countdown stops, and the orchestrator returns to idle. No
// cleanup call to the service is needed since no server-side job handle is
// held.
func (o *Orchestrator) Abandon() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	if o.done != nil && !o.stage.Terminal() {
		close(o.done)
	}
	o.run++ // Anything still in flight is now stale
	o.stage = StageIdle
	o.progress = 0
	o.lastErr = ""
	o.rateLimit = nil
	o.insights = nil
	o.done = nil
	o.notifyLocked()
}

// Wait blocks until the current run reaches a terminal stage, then returns
// the final snapshot
func (o *Orchestrator) Wait(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()

	if done == nil {
		return Snapshot{}, errors.New("no run in progress")
	}
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-done:
		return o.Status(), nil
	}
}

// Status returns the current session snapshot
func (o *Orchestrator) Status() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Result returns the import result once the run is complete
func (o *Orchestrator) Result() (*model.ImportResult, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stage != StageComplete {
		return nil, false
	}
	return &model.ImportResult{
		Success:  true,
		Insights: append([]model.GeneratedInsight(nil), o.insights...),
		Errors:   []string{},
	}, true
}

// beginLocked resets session state and launches a fresh run. Caller holds the lock.
func (o *Orchestrator) beginLocked(ctx context.Context, next Stage) {
	o.run++
	run := o.run
	o.stage = next // analyzing
	o.progress = 10
	o.lastErr = ""
	o.rateLimit = nil
	o.insights = nil
	o.done = make(chan struct{})

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	data, journeyMap := o.dataset, o.journeyMap
	o.notifyLocked()
	go o.execute(runCtx, run, data, journeyMap)
}

// execute runs the stages in order. Every state mutation goes through
// advance, which drops the mutation if the run has been superseded.
func (o *Orchestrator) execute(ctx context.Context, run int, data *model.CombinedDataset, journeyMap *model.JourneyMap) {
	// analyzing: pure local staging, no network call
	if o.analyzeDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.analyzeDelay):
		}
	}
	if !o.advance(run, EventAnalyzed, func() { o.setProgressLocked(30) }) {
		return
	}

	drafts, err := o.generator.Generate(ctx, data, journeyMap)
	if err != nil {
		o.fail(run, err)
		return
	}
	if !o.advance(run, EventGenerated, func() {
		o.insights = drafts
		o.setProgressLocked(75)
	}) {
		return
	}

	enriched, err := o.matcher.Match(ctx, drafts, journeyMap)
	if err != nil {
		o.fail(run, err)
		return
	}
	o.advance(run, EventMatched, func() {
		o.insights = enriched
		o.setProgressLocked(100)
	})
}

// fail routes an error into rate_limited or error. The rate-limit check runs
// first: both arrive on the same error path, and misclassifying a rate limit
// as a generic failure would lose its countdown and retry gating.
func (o *Orchestrator) fail(run int, err error) {
	var rl *client.RateLimitError
	if errors.As(err, &rl) {
		info := rl.Info
		if o.advance(run, EventRateLimited, func() { o.rateLimit = &info }) {
			go o.countdown(run)
		}
		return
	}

	msg := err.Error()
	if msg == "" {
		msg = genericFailure
	}
	o.advance(run, EventFailed, func() { o.lastErr = msg })
}

// advance applies one event to the current run. It returns false if the run
// is stale (abandoned or superseded by a retry) or the transition is
// invalid; in either case no state changes.
func (o *Orchestrator) advance(run int, ev Event, mutate func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if run != o.run {
		return false
	}
	next, err := Transition(o.stage, ev)
	if err != nil {
		return false
	}
	o.stage = next
	if mutate != nil {
		mutate()
	}
	if next.Terminal() {
		close(o.done)
	}
	o.notifyLocked()
	return true
}

// countdown refreshes the remaining-wait display once per tick while rate
// limited. It stops itself as soon as the wait reaches zero or the session
// leaves rate_limited (retry, abandon, teardown).
func (o *Orchestrator) countdown(run int) {
	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	for range ticker.C {
		o.mu.Lock()
		if run != o.run || o.stage != StageRateLimited {
			o.mu.Unlock()
			return
		}
		remaining := o.remainingLocked()
		o.notifyLocked()
		o.mu.Unlock()
		if remaining == 0 {
			return
		}
	}
}

func (o *Orchestrator) remainingLocked() time.Duration {
	if o.rateLimit == nil {
		return 0
	}
	return o.rateLimit.Wait(o.now())
}

func (o *Orchestrator) setProgressLocked(p int) {
	if p > o.progress {
		o.progress = p
	}
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	s := Snapshot{
		Stage:         o.stage,
		Progress:      o.progress,
		LastError:     o.lastErr,
		RemainingWait: o.remainingLocked(),
	}
	if o.rateLimit != nil {
		info := *o.rateLimit
		s.RateLimit = &info
	}
	return s
}

func (o *Orchestrator) notifyLocked() {
	if o.notify == nil {
		return
	}
	o.notify(o.snapshotLocked())
}
