package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// VocabEntry tracks how a single word has been practised.
type VocabEntry struct {
	TimesCorrect int       `json:"timesCorrect"`
	FirstSeen    time.Time `json:"firstSeen"`
}

// UnmarshalJSON accepts firstSeen as an RFC 3339 string or as epoch
// milliseconds, which is what browser clients write with Date.now().
func (v *VocabEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		TimesCorrect int             `json:"timesCorrect"`
		FirstSeen    json.RawMessage `json:"firstSeen"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	v.TimesCorrect = max(raw.TimesCorrect, 0)
	v.FirstSeen = time.Time{}

	fs := bytes.TrimSpace(raw.FirstSeen)
	if len(fs) == 0 || bytes.Equal(fs, []byte("null")) {
		return nil
	}

	if fs[0] == '"' {
		var t time.Time
		if err := json.Unmarshal(fs, &t); err != nil {
			return fmt.Errorf("first seen: %w", err)
		}
		v.FirstSeen = t
		return nil
	}

	var ms int64
	if err := json.Unmarshal(fs, &ms); err != nil {
		return fmt.Errorf("first seen: %w", err)
	}
	v.FirstSeen = time.UnixMilli(ms).UTC()
	return nil
}

// NormalizeWord collapses whitespace, trims and lowercases a word or phrase,
// the same way answers are compared on the client.
func NormalizeWord(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
