package survey

import (
	"math"
	"strconv"
)

// maxScorePerQuestion is the fixed normalization divisor per answered
// question. The option scale runs to 6, but normalization and the all-max
// check below both use 5; the asymmetry is inherited product behavior and
// must not be corrected here.
const maxScorePerQuestion = 5

// maxAnswerThreshold is the cutoff for treating an answer as "maximum"
// in the perfect-response check: values 5 and 6 both count.
const maxAnswerThreshold = 5

// Category weights for the overall score.
const (
	weightCorruptionPerception = 0.4
	weightServiceQuality       = 0.4
	weightSurveyIntegrity      = 0.2
)

type categoryResult struct {
	normalized int
	allMax     bool
}

// ComputeScores scores a completed answer map against the catalog.
// It is deterministic and never fails: a missing or unknown answer
// contributes 0 to its category sum. Completeness validation is the
// caller's job.
func ComputeScores(catalog []*Question, answers map[string]string) Scores {
	cp := scoreCategory(QuestionsInCategory(catalog, CategoryCorruptionPerception), answers)
	sq := scoreCategory(QuestionsInCategory(catalog, CategoryServiceQuality), answers)
	si := scoreCategory(QuestionsInCategory(catalog, CategorySurveyIntegrity), answers)

	overall := clampScore(int(math.Round(
		weightCorruptionPerception*float64(cp.normalized) +
			weightServiceQuality*float64(sq.normalized) +
			weightSurveyIntegrity*float64(si.normalized))))

	return Scores{
		CorruptionPerception: cp.normalized,
		ServiceQuality:       sq.normalized,
		SurveyIntegrity:      si.normalized,
		Overall:              overall,
		IsPerfect:            cp.allMax && sq.allMax && si.allMax,
	}
}

func scoreCategory(questions []*Question, answers map[string]string) categoryResult {
	if len(questions) == 0 {
		// an empty category scores 0 and is vacuously all-max
		return categoryResult{normalized: 0, allMax: true}
	}
	sum := 0
	allMax := true
	for _, q := range questions {
		value, ok := answers[q.ID]
		if !ok {
			if q.Scored() {
				allMax = false
			}
			continue
		}
		if opt := q.OptionByValue(value); opt != nil {
			sum += opt.Score
		}
		if !q.Scored() {
			// zero-scored questions (the coercion check) never take part
			// in the perfect-response determination
			continue
		}
		if n, err := strconv.Atoi(value); err != nil || n < maxAnswerThreshold {
			allMax = false
		}
	}
	normalized := clampScore(int(math.Round(
		float64(sum) / float64(len(questions)*maxScorePerQuestion) * 100)))
	return categoryResult{normalized: normalized, allMax: allMax}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
