package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aliskhannn/spanish-trainer/internal/service"
)

func TestBuildProgressBar(t *testing.T) {
	tests := []struct {
		current, total int
		want           string
	}{
		{0, 50, "[░░░░░░░░░░]"},
		{25, 50, "[█████░░░░░]"},
		{80, 50, "[██████████]"},
		{10, 0, "[░░░░░░░░░░]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, buildProgressBar(tt.current, tt.total, 10))
	}
}

func TestPluralDays(t *testing.T) {
	tests := map[int]string{
		1: "день", 2: "дня", 4: "дня", 5: "дней", 11: "дней",
		12: "дней", 21: "день", 22: "дня", 111: "дней",
	}

	for n, want := range tests {
		assert.Equal(t, want, pluralDays(n), "n=%d", n)
	}
}

func TestDecodeCallback(t *testing.T) {
	cd := decodeCallback(buildResetConfirmCallback())
	assert.Equal(t, actionReset, cd.Action)
	assert.Equal(t, resetConfirm, cd.param(0))
	assert.Empty(t, cd.param(1))

	cd = decodeCallback(buildStatsCallback())
	assert.Equal(t, actionStats, cd.Action)
	assert.Empty(t, cd.Params)
}

func TestFormatStatsEscapesMarkdown(t *testing.T) {
	text := formatStats(service.Summary{
		XPTotal:       120,
		XPToday:       30,
		DailyGoalXP:   50,
		GoalProgress:  60,
		Streak:        3,
		AnsweredToday: 6,
		CorrectToday:  5,
		Accuracy:      83,
	})

	assert.Contains(t, text, "XP всего: 120")
	assert.Contains(t, text, "Серия: 3 дня")
	assert.Contains(t, text, "\\[██████░░░░\\]")
	assert.Contains(t, text, "точность 83%\\)")
}

func TestLooksLikeSyncCode(t *testing.T) {
	assert.True(t, looksLikeSyncCode(` {"version":1} `))
	assert.False(t, looksLikeSyncCode("hola"))
	assert.False(t, looksLikeSyncCode("{"))
}
