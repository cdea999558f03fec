package entities

// StreakCandidate is a user whose cloud progress may need a streak reminder.
type StreakCandidate struct {
	UserID      int64
	ChatID      int64
	Progress    string // raw stored progress record
	LastSentDay string // day the last streak reminder went out, empty if never
}

// StreakReminder is the payload of a "keep your streak" notification.
type StreakReminder struct {
	UserID int64
	ChatID int64
	Streak int
}

// StreakAtRisk reports whether a reminder is due for progress p on today.
// The streak is at risk when the learner was active yesterday, has not been
// active today and was not reminded today yet.
func StreakAtRisk(p *ProgressRecord, lastSentDay, today, yesterday string) bool {
	if p.Streak <= 0 || lastSentDay == today {
		return false
	}
	return p.LastActiveDay == yesterday
}
