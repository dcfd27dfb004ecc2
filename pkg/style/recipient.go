package style

import (
	"fmt"

	"github.com/buildingjoshbetter/kestrel/internal/store"
)

// minRecipientMessages is the minimum message history before a
// recipient-specific variant is computed at all; below this, the per-
// recipient signal is too noisy to trust over the general profile.
const minRecipientMessages = 3

// RecipientObservation is one freshly-measured reading of how the user
// wrote to a specific recipient.
type RecipientObservation struct {
	Formality  float64
	Warmth     float64
	EmojiUsage float64
}

// UpdateRecipientStyle folds obs into entityID's recipient style profile via
// an exponential moving average, new = old*(1-alpha) + obs*alpha. alpha is
// a positional parameter (not a struct field) so callers can vary it, e.g.
// a smaller alpha once MessageCount is well established. Below
// minRecipientMessages prior messages, the profile is seeded directly from
// obs rather than blended, since there's nothing meaningful to blend with
// yet.
func (e *Engine) UpdateRecipientStyle(entityID string, alpha float64, obs RecipientObservation) error {
	profile, err := e.store.GetRecipientStyle(entityID)
	if err != nil {
		return fmt.Errorf("style: update recipient style: load: %w", err)
	}
	if profile == nil {
		profile = &store.RecipientStyleProfile{EntityID: entityID}
	}

	if profile.MessageCount < minRecipientMessages {
		profile.Formality = obs.Formality
		profile.Warmth = obs.Warmth
		profile.EmojiUsage = obs.EmojiUsage
	} else {
		profile.Formality = ema(profile.Formality, alpha, obs.Formality)
		profile.Warmth = ema(profile.Warmth, alpha, obs.Warmth)
		profile.EmojiUsage = ema(profile.EmojiUsage, alpha, obs.EmojiUsage)
	}
	profile.MessageCount++

	if err := e.store.UpsertRecipientStyle(profile); err != nil {
		return fmt.Errorf("style: update recipient style: save: %w", err)
	}
	return nil
}

func ema(old, alpha, observed float64) float64 {
	return old*(1-alpha) + observed*alpha
}
