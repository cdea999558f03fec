package entities

import (
	"encoding/json"
	"math"
	"time"
)

// ProgressVersion is the schema version written by this code.
const ProgressVersion = 2

// xpHistoryDays bounds how many days of per-day XP are kept.
const xpHistoryDays = 30

// ProgressRecord is the persisted learner progress.
type ProgressRecord struct {
	Version       int                   `json:"version"`
	XPTotal       int                   `json:"xpTotal"`
	Streak        int                   `json:"streak"`
	DayKey        string                `json:"dayKey"`        // day the daily counters apply to
	LastActiveDay string                `json:"lastActiveDay"` // last day that advanced the streak
	AnsweredToday int                   `json:"answeredToday"`
	CorrectToday  int                   `json:"correctToday"`
	WordsLearned  int                   `json:"wordsLearned"`
	Completed     map[string]bool       `json:"completed"`
	Vocab         map[string]VocabEntry `json:"vocab"`
	XPByDay       map[string]int        `json:"xpByDay"`

	// Extra keeps fields written by other clients so they survive a rewrite.
	Extra map[string]json.RawMessage `json:"-"`
}

// NewProgressRecord creates a record with zero counters for the given day.
func NewProgressRecord(today string) *ProgressRecord {
	return &ProgressRecord{
		Version:   ProgressVersion,
		DayKey:    today,
		Completed: make(map[string]bool),
		Vocab:     make(map[string]VocabEntry),
		XPByDay:   make(map[string]int),
	}
}

// ReconcileDay moves the daily counters to today.
//
// Only answeredToday and correctToday are reset. The streak is left alone:
// a missed day breaks it on the next qualifying activity, not at midnight.
func (p *ProgressRecord) ReconcileDay(today string) {
	if p.DayKey == today {
		return
	}
	p.DayKey = today
	p.AnsweredToday = 0
	p.CorrectToday = 0
}

// RecordAnswer counts a graded answer. It grants no XP and never touches the streak.
func (p *ProgressRecord) RecordAnswer(isCorrect bool) {
	p.AnsweredToday++
	if isCorrect {
		p.CorrectToday++
	}
}

// AwardXP adds XP to the lifetime total and to today's bucket.
// Negative amounts are ignored.
func (p *ProgressRecord) AwardXP(amount int) {
	if amount <= 0 {
		return
	}
	p.XPTotal += amount

	if p.XPByDay == nil {
		p.XPByDay = make(map[string]int)
	}
	p.XPByDay[p.DayKey] += amount
	p.pruneXPHistory()
}

// TouchStreakForToday credits the streak for today's first qualifying activity.
//
//  1. Already credited today: nothing happens.
//  2. Last active yesterday: the streak continues.
//  3. Otherwise (a gap or never active): the streak restarts at 1.
func (p *ProgressRecord) TouchStreakForToday(today, yesterday string) {
	switch p.LastActiveDay {
	case today:
		return
	case yesterday:
		p.Streak++
	default:
		p.Streak = 1
	}
	p.LastActiveDay = today
}

// CompleteLesson marks a lesson as finished and reports whether it was the
// first completion. Repeated completions award no XP but still count as
// activity for the streak.
func (p *ProgressRecord) CompleteLesson(lessonID string, xpReward int, today, yesterday string) bool {
	if lessonID == "" {
		return false
	}
	if p.Completed == nil {
		p.Completed = make(map[string]bool)
	}

	first := !p.Completed[lessonID]
	if first {
		p.Completed[lessonID] = true
		p.AwardXP(xpReward)
	}
	p.TouchStreakForToday(today, yesterday)

	return first
}

// RecordVocab registers exposure to words. New words count towards
// wordsLearned; known words gain a correct hit when wasCorrect.
func (p *ProgressRecord) RecordVocab(words []string, wasCorrect bool, now time.Time) {
	if p.Vocab == nil {
		p.Vocab = make(map[string]VocabEntry)
	}

	for _, w := range words {
		key := NormalizeWord(w)
		if key == "" {
			continue
		}

		entry, ok := p.Vocab[key]
		if !ok {
			entry = VocabEntry{FirstSeen: now.UTC()}
			p.WordsLearned++
		}
		if wasCorrect {
			entry.TimesCorrect++
		}
		p.Vocab[key] = entry
	}
}

// Accuracy returns today's share of correct answers as a rounded percentage.
func (p *ProgressRecord) Accuracy() int {
	if p.AnsweredToday <= 0 {
		return 0
	}
	return int(math.Round(float64(p.CorrectToday) / float64(p.AnsweredToday) * 100))
}

// XPToday returns the XP earned on the record's current day.
func (p *ProgressRecord) XPToday() int {
	return p.XPByDay[p.DayKey]
}

// LessonsCompleted returns the number of finished lessons.
func (p *ProgressRecord) LessonsCompleted() int {
	n := 0
	for _, done := range p.Completed {
		if done {
			n++
		}
	}
	return n
}

// GoalProgress returns today's XP as a percentage of goal, capped at 100.
func (p *ProgressRecord) GoalProgress(goal int) int {
	if goal <= 0 {
		return 0
	}
	pct := p.XPToday() * 100 / goal
	return min(max(pct, 0), 100)
}

// Sanitize restores the record invariants after decoding untrusted data.
func (p *ProgressRecord) Sanitize() {
	p.Version = ProgressVersion
	p.XPTotal = max(p.XPTotal, 0)
	p.Streak = max(p.Streak, 0)
	p.AnsweredToday = max(p.AnsweredToday, 0)
	p.CorrectToday = min(max(p.CorrectToday, 0), p.AnsweredToday)
	p.WordsLearned = max(p.WordsLearned, 0)

	if p.LastActiveDay != "" && !IsDayKey(p.LastActiveDay) {
		p.LastActiveDay = ""
	}
	if p.Completed == nil {
		p.Completed = make(map[string]bool)
	}
	for id, done := range p.Completed {
		if !done {
			delete(p.Completed, id)
		}
	}
	if p.Vocab == nil {
		p.Vocab = make(map[string]VocabEntry)
	}
	if p.XPByDay == nil {
		p.XPByDay = make(map[string]int)
	}
	for day, xp := range p.XPByDay {
		if !IsDayKey(day) || xp <= 0 {
			delete(p.XPByDay, day)
		}
	}
}

func (p *ProgressRecord) pruneXPHistory() {
	for day := range p.XPByDay {
		diff, err := DaysBetween(day, p.DayKey)
		if err != nil || diff >= xpHistoryDays {
			delete(p.XPByDay, day)
		}
	}
}
