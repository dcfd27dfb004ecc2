package ctxboundary

// Signals is the raw, per-session evidence fed into context detection.
type Signals struct {
	AppIdentifier     string
	WithinWorkHours   bool
	URLDomain         string
	RecipientContexts []string // contexts the message's other party belongs to
	WindowTitle       string
}

const (
	appIdentifierWeight     = 0.4
	workHoursWeight         = 0.2
	urlDomainWeight         = 0.3
	recipientContextWeight  = 0.35
	windowTitleWeight       = 0.15
)

// appContexts and urlDomainContexts are small, extensible lookup tables; in
// production these would likely be user-configurable, but a fixed default
// table is enough to drive additive scoring.
var appContexts = map[string]string{
	"slack":    "work",
	"jira":     "work",
	"linear":   "work",
	"imessage": "personal",
	"whatsapp": "personal",
}

var urlDomainContexts = map[string]string{
	"github.com":       "work",
	"atlassian.net":    "work",
	"myfitnesspal.com": "health",
	"familywall.com":   "family",
}

// windowTitleKeywords maps a lowercase keyword found in a window title to
// the context it suggests.
var windowTitleKeywords = map[string]string{
	"standup": "work",
	"sprint":  "work",
	"doctor":  "health",
	"clinic":  "health",
}

// Detect fuses all available signals into additive per-context scores and
// returns the highest-scoring context along with a confidence normalized to
// [0, 1] (score over the maximum possible score across all rules that
// actually fired).
func Detect(s Signals) (contextName string, confidence float64) {
	scores := map[string]float64{}
	var maxPossible float64

	if ctx, ok := appContexts[s.AppIdentifier]; ok {
		scores[ctx] += appIdentifierWeight
		maxPossible += appIdentifierWeight
	}
	if s.WithinWorkHours {
		scores["work"] += workHoursWeight
		maxPossible += workHoursWeight
	}
	if ctx, ok := urlDomainContexts[s.URLDomain]; ok {
		scores[ctx] += urlDomainWeight
		maxPossible += urlDomainWeight
	}
	if len(s.RecipientContexts) > 0 {
		maxPossible += recipientContextWeight
		share := recipientContextWeight / float64(len(s.RecipientContexts))
		for _, ctx := range s.RecipientContexts {
			scores[ctx] += share
		}
	}
	if ctx, ok := matchWindowTitle(s.WindowTitle); ok {
		scores[ctx] += windowTitleWeight
		maxPossible += windowTitleWeight
	}

	best, bestScore := "", 0.0
	for ctx, score := range scores {
		if score > bestScore {
			best, bestScore = ctx, score
		}
	}
	if maxPossible == 0 {
		return "", 0
	}
	return best, bestScore / maxPossible
}

func matchWindowTitle(title string) (string, bool) {
	lower := toLower(title)
	for keyword, ctx := range windowTitleKeywords {
		if contains(lower, keyword) {
			return ctx, true
		}
	}
	return "", false
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func contains(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
