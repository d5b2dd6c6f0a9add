package learner

// Summary is a coarse picture of learning progress.
type Summary struct {
	StudentID      string  `json:"student_id"`
	TotalPoints    int     `json:"total_points"`
	Mastered       int     `json:"mastered"`
	Moderate       int     `json:"moderate"`
	Weak           int     `json:"weak"`
	Unknown        int     `json:"unknown"`
	AverageMastery float64 `json:"average_mastery"`
	VectorNorm     float64 `json:"vector_norm"`
	TotalAnswers   int     `json:"total_answers"`
	Accuracy       float64 `json:"accuracy"`
	BatchCount     int     `json:"batch_count"`
	PendingReviews int     `json:"pending_reviews"`
}

// Summarize buckets every knowledge point: mastered at or above
// masteredAt, weak below weakBelow, moderate in between. Points never
// practiced and with no mastery count as unknown. A seeded point below
// weakBelow is also unknown until it is practiced, so Weak matches the
// weak-point report.
func (s *State) Summarize(masteredAt, weakBelow float64) Summary {
	sum := Summary{
		StudentID:      s.StudentID,
		TotalPoints:    len(s.Mastery),
		AverageMastery: s.AverageMastery(),
		VectorNorm:     s.Vector.Norm(),
		TotalAnswers:   len(s.History),
		BatchCount:     s.BatchCount,
		PendingReviews: len(s.Errors),
	}
	for i, m := range s.Mastery {
		switch {
		case !s.Tracked(i):
			sum.Unknown++
		case m >= masteredAt:
			sum.Mastered++
		case m >= weakBelow:
			sum.Moderate++
		case s.PracticeCount[i] < 1:
			sum.Unknown++
		default:
			sum.Weak++
		}
	}
	sum.Accuracy, _ = s.RecentAccuracy(0)
	return sum
}
