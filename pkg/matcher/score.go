package matcher

import (
	"math"
	"strings"
)

// ScoreInput is everything the confidence of a candidate depends on.
type ScoreInput struct {
	DaysDiff    *int
	RefScore    int
	NameScore   int
	TargetLabel string
}

const (
	baseConfidence = 50
	minConfidence  = 10
	maxConfidence  = 99
)

// Confidence scores a candidate between 10 and 99.
func Confidence(in ScoreInput) int {
	score := float64(baseConfidence)
	score += dateBonus(in.DaysDiff)
	score += refBonus(in.RefScore)
	score += nameBonus(in.NameScore)
	if strings.Contains(strings.ToLower(in.TargetLabel), "partial") {
		score -= 5
	}

	rounded := int(math.Round(score))
	if rounded < minConfidence {
		return minConfidence
	}
	if rounded > maxConfidence {
		return maxConfidence
	}
	return rounded
}

func dateBonus(days *int) float64 {
	if days == nil {
		return 5
	}
	d := *days
	switch {
	case d <= 2:
		return 30
	case d <= 7:
		return 25
	case d <= 14:
		return 22
	case d <= 30:
		return 15
	case d <= 60:
		return 10
	case d <= 90:
		return 6
	case d <= 120:
		return 4
	}
	return math.Max(1-0.1*float64(d-120), -10)
}

func refBonus(ref int) float64 {
	switch {
	case ref >= 3:
		return 15
	case ref == 2:
		return 12
	case ref == 1:
		return 8
	}
	return 0
}

func nameBonus(name int) float64 {
	switch {
	case name >= 3:
		return 10
	case name == 2:
		return 8
	case name == 1:
		return 6
	}
	return -2
}
