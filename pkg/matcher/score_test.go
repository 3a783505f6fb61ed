package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yurifrl/bankrec/pkg/models"
)

func days(n int) *int { return &n }

func TestConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   ScoreInput
		want int
	}{
		{"same day with reference", ScoreInput{DaysDiff: days(0), RefScore: 3}, 93},
		{"three days with reference", ScoreInput{DaysDiff: days(3), RefScore: 3}, 88},
		{"unknown date", ScoreInput{RefScore: 0, NameScore: 0}, 53},
		{"month away, name only", ScoreInput{DaysDiff: days(25), NameScore: 2}, 73},
		{"window edge", ScoreInput{DaysDiff: days(120), RefScore: 2, NameScore: 1}, 72},
		{"past window decays", ScoreInput{DaysDiff: days(126)}, 48},
		{"decay is clamped", ScoreInput{DaysDiff: days(1000)}, 38},
		{"partial payment penalty", ScoreInput{DaysDiff: days(0), RefScore: 3, TargetLabel: TargetPartialPayment}, 88},
		{"ref score one", ScoreInput{DaysDiff: days(10), RefScore: 1, NameScore: 3}, 90},
		{"clamped high", ScoreInput{DaysDiff: days(1), RefScore: 3, NameScore: 5}, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Confidence(tt.in))
		})
	}
}

func TestConfidenceBounds(t *testing.T) {
	for d := 0; d <= 400; d += 7 {
		for ref := 0; ref <= 3; ref++ {
			for name := 0; name <= 4; name++ {
				c := Confidence(ScoreInput{DaysDiff: days(d), RefScore: ref, NameScore: name, TargetLabel: TargetPartialPayment})
				assert.GreaterOrEqual(t, c, 10)
				assert.LessOrEqual(t, c, 99)
			}
		}
	}
}

func TestConfidenceSameDayReferenceAtLeast80(t *testing.T) {
	for name := 0; name <= 4; name++ {
		assert.GreaterOrEqual(t, Confidence(ScoreInput{DaysDiff: days(0), RefScore: 3, NameScore: name}), 80)
	}
}

func TestRefScore(t *testing.T) {
	entry := func(comm string) *models.IndexEntry {
		return &models.IndexEntry{Communication: models.StringPtr(comm)}
	}

	assert.Equal(t, 3, RefScore("220006", entry("INV 220006")))
	assert.Equal(t, 3, RefScore("INV-220006", entry("payment inv 220006")))
	assert.Equal(t, 3, RefScore("2024/0017", entry("+++202/4001/7000+++")))
	assert.Equal(t, 2, RefScore("ABC-X", entry("ref abc-x")))
	assert.Equal(t, 0, RefScore("ABC-X", entry("something else")))
	assert.Equal(t, 0, RefScore("220006", &models.IndexEntry{}))
	assert.Equal(t, 0, RefScore("", entry("220006")))
}

func TestNameScore(t *testing.T) {
	assert.Equal(t, 2, NameScore("Société Générale", models.StringPtr("SOCIETE GENERALE SA")))
	assert.Equal(t, 1, NameScore("ACME sprl", models.StringPtr("Acme")))
	assert.Equal(t, 0, NameScore("", models.StringPtr("Acme")))
	assert.Equal(t, 0, NameScore("Acme", nil))
	assert.Equal(t, 0, NameScore("Acme", models.StringPtr("---")))
}
