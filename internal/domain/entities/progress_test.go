package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAnswerKeepsCorrectWithinAnswered(t *testing.T) {
	p := NewProgressRecord("2024-01-10")

	outcomes := []bool{true, false, true, true, false, false, true}
	for _, ok := range outcomes {
		p.RecordAnswer(ok)
		require.LessOrEqual(t, p.CorrectToday, p.AnsweredToday)
	}

	assert.Equal(t, 7, p.AnsweredToday)
	assert.Equal(t, 4, p.CorrectToday)
	assert.Zero(t, p.XPTotal, "answers alone grant no XP")
	assert.Zero(t, p.Streak, "answers alone never touch the streak")
}

func TestReconcileDay(t *testing.T) {
	p := NewProgressRecord("2024-01-10")
	p.RecordAnswer(true)
	p.RecordAnswer(false)
	p.AwardXP(30)
	p.TouchStreakForToday("2024-01-10", "2024-01-09")
	p.CompleteLesson("base", 10, "2024-01-10", "2024-01-09")
	p.RecordVocab([]string{"hola"}, true, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))

	t.Run("same day is a no-op", func(t *testing.T) {
		before := *p
		p.ReconcileDay("2024-01-10")
		assert.Equal(t, before.AnsweredToday, p.AnsweredToday)
		assert.Equal(t, before.CorrectToday, p.CorrectToday)
	})

	t.Run("rollover resets only daily counters", func(t *testing.T) {
		p.ReconcileDay("2024-01-11")

		assert.Equal(t, "2024-01-11", p.DayKey)
		assert.Zero(t, p.AnsweredToday)
		assert.Zero(t, p.CorrectToday)
		assert.Equal(t, 40, p.XPTotal)
		assert.Equal(t, 1, p.Streak)
		assert.Equal(t, "2024-01-10", p.LastActiveDay)
		assert.True(t, p.Completed["base"])
		assert.Contains(t, p.Vocab, "hola")
		assert.Zero(t, p.XPToday())
	})

	t.Run("idempotent", func(t *testing.T) {
		p.ReconcileDay("2024-01-12")
		once := *p
		p.ReconcileDay("2024-01-12")
		assert.Equal(t, once, *p)
	})
}

func TestTouchStreakForToday(t *testing.T) {
	tests := []struct {
		name          string
		lastActiveDay string
		streak        int
		want          int
	}{
		{name: "never active", lastActiveDay: "", streak: 0, want: 1},
		{name: "active yesterday", lastActiveDay: "2024-01-09", streak: 4, want: 5},
		{name: "gap of two days", lastActiveDay: "2024-01-08", streak: 4, want: 1},
		{name: "already today", lastActiveDay: "2024-01-10", streak: 4, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProgressRecord("2024-01-10")
			p.LastActiveDay = tt.lastActiveDay
			p.Streak = tt.streak

			p.TouchStreakForToday("2024-01-10", "2024-01-09")

			assert.Equal(t, tt.want, p.Streak)
			assert.Equal(t, "2024-01-10", p.LastActiveDay)
		})
	}
}

func TestTouchStreakTwiceSameDay(t *testing.T) {
	p := NewProgressRecord("2024-01-10")
	p.LastActiveDay = "2024-01-09"
	p.Streak = 2

	p.TouchStreakForToday("2024-01-10", "2024-01-09")
	p.TouchStreakForToday("2024-01-10", "2024-01-09")

	assert.Equal(t, 3, p.Streak)
}

func TestStreakSequenceWithGap(t *testing.T) {
	days := []struct {
		today, yesterday string
		want             int
	}{
		{"2024-03-01", "2024-02-29", 1},
		{"2024-03-02", "2024-03-01", 2},
		{"2024-03-04", "2024-03-03", 1},
	}

	p := NewProgressRecord(days[0].today)
	for _, d := range days {
		p.ReconcileDay(d.today)
		p.TouchStreakForToday(d.today, d.yesterday)
		assert.Equal(t, d.want, p.Streak, "day %s", d.today)
	}
}

func TestLedgerScenario(t *testing.T) {
	p := NewProgressRecord("2024-01-10")

	p.RecordAnswer(true)
	p.TouchStreakForToday("2024-01-10", "2024-01-09")
	assert.Equal(t, 1, p.AnsweredToday)
	assert.Equal(t, 1, p.CorrectToday)
	assert.Equal(t, 1, p.Streak)
	assert.Equal(t, "2024-01-10", p.LastActiveDay)

	p.ReconcileDay("2024-01-11")
	assert.Zero(t, p.AnsweredToday)
	assert.Zero(t, p.CorrectToday)
	assert.Equal(t, "2024-01-11", p.DayKey)
	assert.Equal(t, 1, p.Streak)

	p.TouchStreakForToday("2024-01-11", "2024-01-10")
	assert.Equal(t, 2, p.Streak)

	p.ReconcileDay("2024-01-13")
	p.TouchStreakForToday("2024-01-13", "2024-01-12")
	assert.Equal(t, 1, p.Streak)
}

func TestCompleteLessonAwardsXPOnce(t *testing.T) {
	p := NewProgressRecord("2024-01-10")

	first := p.CompleteLesson("base", 20, "2024-01-10", "2024-01-09")
	again := p.CompleteLesson("base", 20, "2024-01-10", "2024-01-09")

	assert.True(t, first)
	assert.False(t, again)
	assert.True(t, p.Completed["base"])
	assert.Equal(t, 20, p.XPTotal)
	assert.Equal(t, 1, p.Streak)
	assert.Equal(t, 1, p.LessonsCompleted())
}

func TestCompleteLessonRepeatStillTouchesStreak(t *testing.T) {
	p := NewProgressRecord("2024-01-10")
	p.CompleteLesson("base", 20, "2024-01-10", "2024-01-09")

	p.ReconcileDay("2024-01-11")
	p.CompleteLesson("base", 20, "2024-01-11", "2024-01-10")

	assert.Equal(t, 20, p.XPTotal)
	assert.Equal(t, 2, p.Streak)
}

func TestCompleteLessonIgnoresEmptyID(t *testing.T) {
	p := NewProgressRecord("2024-01-10")

	assert.False(t, p.CompleteLesson("", 20, "2024-01-10", "2024-01-09"))
	assert.Zero(t, p.XPTotal)
	assert.Empty(t, p.Completed)
}

func TestAwardXP(t *testing.T) {
	p := NewProgressRecord("2024-01-10")
	p.XPByDay["2023-11-01"] = 15

	p.AwardXP(10)
	p.AwardXP(-5)
	p.AwardXP(0)

	assert.Equal(t, 10, p.XPTotal)
	assert.Equal(t, 10, p.XPToday())
	assert.NotContains(t, p.XPByDay, "2023-11-01", "old history is pruned")
	assert.Equal(t, 20, p.GoalProgress(50))
}

func TestRecordVocab(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	p := NewProgressRecord("2024-01-10")

	p.RecordVocab([]string{"Hola", "  buenos   días ", ""}, false, now)
	p.RecordVocab([]string{"hola"}, true, now.Add(time.Hour))

	require.Len(t, p.Vocab, 2)
	assert.Equal(t, 2, p.WordsLearned)
	assert.Equal(t, 1, p.Vocab["hola"].TimesCorrect)
	assert.Equal(t, now, p.Vocab["hola"].FirstSeen)
	assert.Equal(t, 0, p.Vocab["buenos días"].TimesCorrect)
}

func TestAccuracy(t *testing.T) {
	p := NewProgressRecord("2024-01-10")
	assert.Zero(t, p.Accuracy())

	p.RecordAnswer(true)
	p.RecordAnswer(true)
	p.RecordAnswer(false)
	assert.Equal(t, 67, p.Accuracy())
}

func TestSanitize(t *testing.T) {
	p := &ProgressRecord{
		XPTotal:       -5,
		Streak:        -1,
		AnsweredToday: 2,
		CorrectToday:  5,
		LastActiveDay: "yesterday",
		Completed:     map[string]bool{"a": true, "b": false},
		XPByDay:       map[string]int{"2024-01-10": 5, "bad": 3, "2024-01-09": -2},
	}

	p.Sanitize()

	assert.Equal(t, ProgressVersion, p.Version)
	assert.Zero(t, p.XPTotal)
	assert.Zero(t, p.Streak)
	assert.Equal(t, 2, p.CorrectToday)
	assert.Empty(t, p.LastActiveDay)
	assert.Equal(t, map[string]bool{"a": true}, p.Completed)
	assert.Equal(t, map[string]int{"2024-01-10": 5}, p.XPByDay)
	assert.NotNil(t, p.Vocab)
}
