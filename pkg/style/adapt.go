package style

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

// Observation is one freshly-measured style reading, used to nudge the
// user's persisted StyleProfile toward how they actually just communicated.
type Observation struct {
	Formality        float64
	Verbosity        float64
	EmojiDensity     float64
	AvgMessageLength float64
}

// ApplyAdaptation nudges the persisted style profile toward obs, scaled by
// the learning-rate schedule and bounded by the per-session cap, unless
// vent is currently detected, in which case no dimension moves and a
// vent_mode_detected engagement event is logged instead.
func (e *Engine) ApplyAdaptation(obs Observation, vent VentSignals, sessionEngagement float64) error {
	if IsVenting(vent) {
		return e.logEngagementEvent(&store.EngagementEvent{
			ID:              uuid.NewString(),
			InteractionType: "vent_mode_detected",
			Timestamp:       time.Now().UnixMilli(),
		})
	}

	profile, err := e.store.GetStyleProfile()
	if err != nil {
		return fmt.Errorf("style: apply adaptation: load profile: %w", err)
	}
	if profile == nil {
		profile = &store.StyleProfile{}
	}

	rate := LearningRate(profile.InteractionCount)
	capValue := SessionCap(sessionEngagement)
	now := time.Now().UnixMilli()

	e.adaptDimension(profile, "formality", &profile.Formality, obs.Formality, rate, capValue, now)
	e.adaptDimension(profile, "verbosity", &profile.Verbosity, obs.Verbosity, rate, capValue, now)
	e.adaptDimension(profile, "emoji_density", &profile.EmojiDensity, obs.EmojiDensity, rate, capValue, now)
	e.adaptDimension(profile, "avg_message_length", &profile.AvgMessageLength, obs.AvgMessageLength, rate, capValue, now)

	profile.InteractionCount++
	profile.UpdatedAt = now
	if err := e.store.UpsertStyleProfile(profile); err != nil {
		return fmt.Errorf("style: apply adaptation: save profile: %w", err)
	}
	return nil
}

// adaptDimension moves *current toward target by rate, clamped to ±cap,
// and logs the change to personality_evolution if it actually moved.
func (e *Engine) adaptDimension(profile *store.StyleProfile, name string, current *float64, target, rate, capValue float64, now int64) bool {
	old := *current
	delta := ClampDelta((target-old)*rate, capValue)
	if delta == 0 {
		return false
	}
	next := old + delta
	*current = next

	rev := &store.PersonalityEvolution{
		ID:               uuid.NewString(),
		Timestamp:        now,
		Dimension:        name,
		OldValue:         old,
		NewValue:         next,
		LearningRateUsed: rate,
	}
	if err := e.store.InsertPersonalityEvolution(rev); err != nil {
		e.log.Warn().Err(err).Str("dimension", name).Msg("style: failed to log personality evolution")
	}
	return true
}

// LogChangePoint records every dimension whose delta exceeds the
// change-point floor when a Detector reports one, marking each row
// was_change_point = true.
func (e *Engine) LogChangePoint(prior, current Vector, dimensionNames [5]string, rate float64) error {
	now := time.Now().UnixMilli()
	for i, delta := range DeltaDimensions(prior, current) {
		rev := &store.PersonalityEvolution{
			ID:               uuid.NewString(),
			Timestamp:        now,
			Dimension:        dimensionNames[i],
			OldValue:         prior[i],
			NewValue:         current[i],
			LearningRateUsed: rate,
			WasChangePoint:   true,
		}
		if err := e.store.InsertPersonalityEvolution(rev); err != nil {
			return fmt.Errorf("style: log change point: %w", err)
		}
	}
	return nil
}

func (e *Engine) logEngagementEvent(ev *store.EngagementEvent) error {
	if err := e.store.InsertEngagementEvent(ev); err != nil {
		return fmt.Errorf("style: log engagement event: %w", err)
	}
	return nil
}
