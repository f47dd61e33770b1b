package app

import "futur-genie-quiz/internal/domain"

// Summarize aggregates the submissions of a quiz.
func Summarize(quizID string, submissions []domain.Submission) domain.QuizStats {
	stats := domain.QuizStats{QuizID: quizID}
	if len(submissions) == 0 {
		return stats
	}

	respondents := make(map[string]struct{})
	var scoreSum, percentSum, durationSum int
	stats.WorstPercent = 100
	for _, sub := range submissions {
		respondents[sub.RespondentID] = struct{}{}
		percent := domain.Score{Score: sub.Score, Total: sub.Total}.Percent()
		scoreSum += sub.Score
		percentSum += percent
		durationSum += sub.DurationSeconds
		if percent > stats.BestPercent {
			stats.BestPercent = percent
		}
		if percent < stats.WorstPercent {
			stats.WorstPercent = percent
		}
		if sub.Total > 0 && sub.Score == sub.Total {
			stats.PerfectCount++
		}
	}

	n := float64(len(submissions))
	stats.Attempts = len(submissions)
	stats.Respondents = len(respondents)
	stats.AverageScore = float64(scoreSum) / n
	stats.AveragePercent = float64(percentSum) / n
	stats.AverageDuration = float64(durationSum) / n
	return stats
}
