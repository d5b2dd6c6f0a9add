package diagnosis

import "fmt"

var urgencyAdvice = map[Urgency]string{
	UrgencyHigh:   "start again from the basic concepts",
	UrgencyMedium: "needs more focused practice",
	UrgencyLight:  "a few more exercises will consolidate it",
}

func (a *Analyzer) messages(weak []WeakPoint) []string {
	if len(weak) == 0 {
		return []string{"No weak knowledge points right now. Keep it up!"}
	}

	var msgs []string
	for i, wp := range weak {
		if i >= a.cfg.MessageLimit {
			break
		}
		msgs = append(msgs, fmt.Sprintf("[%s] %s (%s): accuracy %.1f%% over %d attempts, mastery %.2f; %s.",
			wp.Urgency, wp.Name, wp.ID, wp.Accuracy, wp.TotalAttempts, wp.Mastery, urgencyAdvice[wp.Urgency]))
	}

	switch {
	case len(weak) > a.cfg.ManyWeakPoints:
		msgs = append(msgs, "Strategy: many weak points; work through the weakest two or three before moving on.")
	case len(weak) > a.cfg.SeveralWeakPoints:
		msgs = append(msgs, "Strategy: practice several weak points in parallel, but split your time between them.")
	default:
		msgs = append(msgs, "Strategy: concentrate on these points; progress should show quickly.")
	}
	return msgs
}
