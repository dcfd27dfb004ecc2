// Package worker runs the background cycle that turns raw ingested
// messages into events, patterns, rhythms, predictions, and proactive
// triggers, on a fixed interval until stopped.
package worker

import (
	"fmt"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/buildingjoshbetter/kestrel/internal/store"
	"github.com/buildingjoshbetter/kestrel/pkg/behavior"
	"github.com/buildingjoshbetter/kestrel/pkg/belief"
	"github.com/buildingjoshbetter/kestrel/pkg/commitment"
	"github.com/buildingjoshbetter/kestrel/pkg/extraction"
)

const (
	defaultInterval           = 30 * time.Second
	defaultBatchSize          = 50
	minEventsForMining        = 10
	rhythmWindow              = 7 * 24 * time.Hour
	predictionVerifyGrace     = 1 * time.Hour
	triggerDedupeWindow       = 6 * time.Hour
	staleFollowUpAge          = 7 * 24 * time.Hour
)

// CycleResult summarizes one pass of the loop. No step aborts the cycle on
// error; failures are collected here instead.
type CycleResult struct {
	StartedAt           time.Time
	Duration            time.Duration
	MessagesDrained     int
	AssertionsExtracted int
	EventsMined         int
	PatternsTouched     int
	RhythmSlots         int
	PredictionsFired    int
	TriggersGenerated   int
	Errors              []string
}

// Worker drives the periodic background cycle.
type Worker struct {
	store       store.Storer
	behavior    *behavior.Engine
	commitments *commitment.Tracker
	belief      *belief.Store
	extractor   *extraction.Extractor
	log         zerolog.Logger

	interval  time.Duration
	batchSize int

	cronParser cronlib.Parser

	mu         sync.Mutex
	lastResult CycleResult
	running    bool
	stopCh     chan struct{}
	triggerCh  chan struct{}
}

// New creates a Worker with the default interval and batch size. extractor
// may be nil (no LLM completion endpoint configured); the worker then
// drains messages into events without attempting fact/relation extraction.
func New(s store.Storer, extractor *extraction.Extractor, log zerolog.Logger) *Worker {
	return &Worker{
		store:       s,
		behavior:    behavior.New(s, log),
		commitments: commitment.New(s, log),
		belief:      belief.New(s, log),
		extractor:   extractor,
		log:         log,
		interval:    defaultInterval,
		batchSize:   defaultBatchSize,
		cronParser:  cronlib.NewParser(cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor),
		triggerCh:   make(chan struct{}, 1),
	}
}

// NextScheduledFire validates expr as a standard 5-field cron expression and
// returns its next fire time after after, reusing the same parser the
// corpus's own scheduler depends on so this earns the dependency a role
// beyond the worker's own fixed-interval loop.
func (w *Worker) NextScheduledFire(expr string, after time.Time) (time.Time, error) {
	sched, err := w.cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("worker: parse schedule %q: %w", expr, err)
	}
	return sched.Next(after), nil
}

// Start launches the ticker-driven background goroutine. It returns
// immediately; the loop runs until Stop is called.
func (w *Worker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.stopCh:
				return
			case <-w.triggerCh:
				w.runCycle()
			case <-ticker.C:
				w.runCycle()
			}
		}
	}()
}

// Stop halts the background loop. Safe to call even if Start was never
// called or was already stopped.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	close(w.stopCh)
	w.running = false
}

// TriggerNow requests an out-of-band cycle without waiting for the next
// tick. Non-blocking: a cycle already queued is not duplicated.
func (w *Worker) TriggerNow() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the most recently completed cycle's result.
func (w *Worker) Status() CycleResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastResult
}

func (w *Worker) runCycle() {
	result := w.RunOnce()
	w.mu.Lock()
	w.lastResult = result
	w.mu.Unlock()
}

// RunOnce executes a single cycle synchronously and returns its result,
// independent of the ticker loop. Used by Start's goroutine and by manual
// triggers, and directly by tests.
func (w *Worker) RunOnce() CycleResult {
	result := CycleResult{StartedAt: time.Now()}

	drained, extracted, err := w.drainMessages()
	result.MessagesDrained = drained
	result.AssertionsExtracted = extracted
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	mined, err := w.minePatterns()
	result.EventsMined = mined
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	slots, err := w.rebuildRhythms()
	result.RhythmSlots = slots
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	fired, err := w.firePredictions()
	result.PredictionsFired = fired
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	triggered, err := w.generateTriggers()
	result.TriggersGenerated = triggered
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	result.Duration = time.Since(result.StartedAt)
	w.log.Debug().
		Int("messages_drained", result.MessagesDrained).
		Int("assertions_extracted", result.AssertionsExtracted).
		Int("events_mined", result.EventsMined).
		Int("rhythm_slots", result.RhythmSlots).
		Int("predictions_fired", result.PredictionsFired).
		Int("triggers_generated", result.TriggersGenerated).
		Int("errors", len(result.Errors)).
		Dur("duration", result.Duration).
		Msg("background cycle complete")
	return result
}
