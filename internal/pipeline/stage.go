package pipeline

import "fmt"

// Stage is the state of a processing run. State is tracked solely by this
// field; progress percentages are advisory and never drive behavior.
type Stage string

const (
	StageIdle        Stage = "idle"         // No run started yet
	StageAnalyzing   Stage = "analyzing"    // Local staging, no network call
	StageGenerating  Stage = "generating"   // Generation request in flight
	StageMatching    Stage = "matching"     // Matching request in flight
	StageComplete    Stage = "complete"     // Terminal success
	StageError       Stage = "error"        // Terminal for this attempt, retryable
	StageRateLimited Stage = "rate_limited" // Terminal for this attempt, retryable after reset
)

// Terminal reports whether the stage ends the current attempt
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError || s == StageRateLimited
}

// Event is something that happened to a run
type Event string

const (
	EventStart       Event = "start"        // Begin a run from idle
	EventAnalyzed    Event = "analyzed"     // Staging finished
	EventGenerated   Event = "generated"    // Generation returned drafts
	EventMatched     Event = "matched"      // Matching returned enriched insights
	EventRateLimited Event = "rate_limited" // Service throttled the request
	EventFailed      Event = "failed"       // Any other failure
	EventRetry       Event = "retry"        // Full restart after error/rate limit
)

// Transition is the single place run stages change. Anything not listed here
// (complete -> generating, analyzing -> matched, ...) is invalid and returns
// an error instead of silently corrupting the run.
func Transition(from Stage, ev Event) (Stage, error) {
	switch ev {
	case EventStart:
		if from == StageIdle {
			return StageAnalyzing, nil
		}
	case EventAnalyzed:
		if from == StageAnalyzing {
			return StageGenerating, nil
		}
	case EventGenerated:
		if from == StageGenerating {
			return StageMatching, nil
		}
	case EventMatched:
		if from == StageMatching {
			return StageComplete, nil
		}
	case EventRateLimited:
		if from == StageGenerating || from == StageMatching {
			return StageRateLimited, nil
		}
	case EventFailed:
		if from == StageGenerating || from == StageMatching {
			return StageError, nil
		}
	case EventRetry:
		if from == StageError || from == StageRateLimited {
			return StageAnalyzing, nil
		}
	}
	return from, fmt.Errorf("invalid transition: %s on %s", ev, from)
}
