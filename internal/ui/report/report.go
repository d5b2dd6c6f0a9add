// Package report renders core results as styled terminal text.
package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/abhisek/kgtutor/internal/diagnosis"
	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/learner"
	"github.com/abhisek/kgtutor/internal/mastery"
	"github.com/abhisek/kgtutor/internal/questionbank"
	"github.com/abhisek/kgtutor/internal/recommend"
	"github.com/abhisek/kgtutor/internal/spacedrep"
	"github.com/abhisek/kgtutor/internal/ui/components"
	"github.com/abhisek/kgtutor/internal/ui/theme"
)

const barWidth = 20

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, questionbank.CompareIDs)
	return keys
}

func weights(kps map[string]float64) string {
	parts := make([]string, 0, len(kps))
	for _, id := range sortedKeys(kps) {
		parts = append(parts, fmt.Sprintf("%s:%.1f", id, kps[id]))
	}
	return strings.Join(parts, " ")
}

// Batch writes a recommendation batch, one question per block.
func Batch(w io.Writer, b *recommend.Batch) {
	fmt.Fprintln(w, theme.Title.Render("Recommended questions"))
	fmt.Fprintln(w, theme.Hint.Render(b.Reason))
	fmt.Fprintln(w)

	for i, it := range b.Items {
		head := fmt.Sprintf("%d. %s", i+1, theme.ID.Render(it.ID))
		if it.IsReview {
			head += "  " + theme.Review.Render("review")
		}
		fmt.Fprintln(w, head+"  "+theme.Subtitle.Render(fmt.Sprintf("difficulty %.2f  score %.3f  [%s]", it.Difficulty, it.Score, weights(it.KnowledgePoints))))
		fmt.Fprintln(w, "   "+theme.Body.Render(it.Content))
		for j, opt := range it.Options {
			fmt.Fprintf(w, "     %s) %s\n", questionbank.Letter(j), opt)
		}
		if it.ReviewReason != "" {
			fmt.Fprintln(w, "   "+theme.Hint.Render(it.ReviewReason))
		}
	}
}

// Results writes the outcome of submitted answers.
func Results(w io.Writer, results []mastery.Result) {
	correct, graded := 0, 0
	for _, r := range results {
		line := theme.ID.Render(r.QuestionID) + "  "
		switch {
		case !r.Graded():
			line += theme.Skipped.Render(fmt.Sprintf("skipped (%s): %v", r.Status, r.Err))
		case r.Correct:
			graded++
			correct++
			line += theme.Correct.Render("✓ correct")
		default:
			graded++
			line += theme.Incorrect.Render(fmt.Sprintf("✗ %s, answer is %s", r.Chosen, r.CorrectOption))
		}
		if r.Review {
			line += "  " + theme.Review.Render("review")
		}
		fmt.Fprintln(w, line)
	}
	if graded > 0 {
		fmt.Fprintln(w, theme.Subtitle.Render(fmt.Sprintf("%d/%d correct", correct, graded)))
	}
}

// Check writes a grading report.
func Check(w io.Writer, r mastery.CheckReport) {
	Results(w, r.Results)
	fmt.Fprintln(w, theme.Hint.Render(fmt.Sprintf("graded %d of %d, accuracy %.0f%%", r.Graded, r.Total, r.Accuracy*100)))
}

// Weak writes a weak-point report.
func Weak(w io.Writer, r diagnosis.Report) {
	fmt.Fprintln(w, theme.Title.Render(fmt.Sprintf("Weak points of %s (mastery < %.2f)", r.StudentID, r.Threshold)))
	for _, wp := range r.WeakPoints {
		style := theme.UrgencyLight
		switch wp.Urgency {
		case diagnosis.UrgencyHigh:
			style = theme.UrgencyHigh
		case diagnosis.UrgencyMedium:
			style = theme.UrgencyMedium
		}
		fmt.Fprintf(w, "%-8s %s %s  %s\n",
			style.Render(string(wp.Urgency)),
			theme.ID.Render(wp.ID),
			wp.Name,
			theme.Subtitle.Render(fmt.Sprintf("%d/%d correct (%.0f%%), mastery %.2f", wp.CorrectAttempts, wp.TotalAttempts, wp.Accuracy, wp.Mastery)),
		)
	}
	fmt.Fprintln(w)
	for _, m := range r.Messages {
		fmt.Fprintln(w, theme.Body.Render(m))
	}
}

// Status writes a progress summary followed by a mastery bar per tracked
// knowledge point.
func Status(w io.Writer, st *learner.State, sum learner.Summary, masteredAt, weakBelow float64) {
	card := fmt.Sprintf("%s\n%d mastered · %d moderate · %d weak · %d unknown\naverage mastery %.2f · %d answers · accuracy %.0f%% · %d batches · %d pending reviews",
		theme.Title.Render(sum.StudentID),
		sum.Mastered, sum.Moderate, sum.Weak, sum.Unknown,
		sum.AverageMastery, sum.TotalAnswers, sum.Accuracy*100, sum.BatchCount, sum.PendingReviews,
	)
	fmt.Fprintln(w, theme.Card.Render(card))

	g := st.Graph()
	for i, m := range st.Mastery {
		if !st.Tracked(i) {
			continue
		}
		id := g.ID(i)
		bar := components.MasteryBar{
			Label:      fmt.Sprintf("%-4s %-28s", id, truncate(g.Name(id), 28)),
			Value:      m,
			MasteredAt: masteredAt,
			WeakBelow:  weakBelow,
			Width:      barWidth,
		}
		fmt.Fprintln(w, bar.View())
	}
}

// Candidates writes the due error-recurrence questions.
func Candidates(w io.Writer, cands []spacedrep.Candidate) {
	if len(cands) == 0 {
		fmt.Fprintln(w, theme.Hint.Render("No missed questions are due for review."))
		return
	}
	fmt.Fprintln(w, theme.Title.Render("Due for review"))
	for _, c := range cands {
		fmt.Fprintf(w, "%s  priority %.3f  %s  %s\n",
			theme.ID.Render(c.QuestionID),
			c.Priority,
			strings.Join(c.KnowledgePoints, ","),
			theme.Hint.Render(c.Reason()),
		)
	}
}

// Changes writes the outcome of a decay pass.
func Changes(w io.Writer, changes []spacedrep.Change, g *knowledge.Graph) {
	if len(changes) == 0 {
		fmt.Fprintln(w, theme.Hint.Render("Nothing decayed."))
		return
	}
	for _, c := range changes {
		fmt.Fprintf(w, "%s %-28s %.3f → %.3f  %s\n",
			theme.ID.Render(c.ID),
			truncate(g.Name(c.ID), 28),
			c.Before, c.After,
			theme.Subtitle.Render(fmt.Sprintf("%.1f days, retention %.2f", c.Days, c.Retention)),
		)
	}
}

// Problems writes the problems of a data integrity failure.
func Problems(w io.Writer, e *knowledge.DataIntegrityError) {
	fmt.Fprintln(w, theme.Incorrect.Render(fmt.Sprintf("%s: %d problem(s)", e.Source, len(e.Problems))))
	for _, p := range e.Problems {
		fmt.Fprintln(w, "  • "+p)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
