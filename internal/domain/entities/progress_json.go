package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyRecord is returned when there is nothing to decode.
var ErrEmptyRecord = errors.New("empty progress record")

// legacyRenames maps field names written by the first version of the web
// client to their current names.
var legacyRenames = map[string]string{
	"totalXp":      "xpTotal",
	"answersToday": "answeredToday",
	"day":          "dayKey",
}

// MarshalJSON writes the known fields and carries over unknown ones.
func (p ProgressRecord) MarshalJSON() ([]byte, error) {
	type plain ProgressRecord

	data, err := json.Marshal(plain(p))
	if err != nil || len(p.Extra) == 0 {
		return data, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}

	return json.Marshal(merged)
}

// EncodeProgress serializes the record for a storage backend.
func EncodeProgress(p *ProgressRecord) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode progress: %w", err)
	}
	return string(data), nil
}

// DecodeProgress parses a stored record and reconciles it to today.
//
// Missing fields take their default values and a field with the wrong type
// falls back to its default without discarding the rest of the record.
// Only input that is not a JSON object is rejected.
func DecodeProgress(raw string, today string) (*ProgressRecord, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 {
		return nil, ErrEmptyRecord
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	if fields == nil {
		return nil, ErrEmptyRecord
	}

	return progressFromFields(fields, today), nil
}

func progressFromFields(fields map[string]json.RawMessage, today string) *ProgressRecord {
	migrateLegacy(fields)

	p := NewProgressRecord(today)

	decodeField(fields, "version", &p.Version)
	decodeField(fields, "xpTotal", &p.XPTotal)
	decodeField(fields, "streak", &p.Streak)
	decodeField(fields, "dayKey", &p.DayKey)
	decodeField(fields, "lastActiveDay", &p.LastActiveDay)
	decodeField(fields, "answeredToday", &p.AnsweredToday)
	decodeField(fields, "correctToday", &p.CorrectToday)
	decodeField(fields, "wordsLearned", &p.WordsLearned)
	decodeField(fields, "xpByDay", &p.XPByDay)

	if raw, ok := fields["completed"]; ok {
		delete(fields, "completed")
		p.Completed = decodeCompleted(raw)
	}
	if raw, ok := fields["vocab"]; ok {
		delete(fields, "vocab")
		p.Vocab = decodeVocab(raw)
	}

	if len(fields) > 0 {
		p.Extra = fields
	}

	// Counters of an unknown day cannot be attributed to today.
	if !IsDayKey(p.DayKey) {
		p.DayKey = ""
	}

	p.Sanitize()
	p.ReconcileDay(today)

	return p
}

func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	delete(fields, key)

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	*dst = v
}

// decodeCompleted accepts true or any non-empty metadata value as "finished".
func decodeCompleted(raw json.RawMessage) map[string]bool {
	out := make(map[string]bool)

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return out
	}

	for id, v := range entries {
		if id != "" && truthy(v) {
			out[id] = true
		}
	}
	return out
}

func truthy(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	switch {
	case len(v) == 0:
		return false
	case bytes.Equal(v, []byte("null")), bytes.Equal(v, []byte("false")):
		return false
	case bytes.Equal(v, []byte(`""`)), bytes.Equal(v, []byte("0")):
		return false
	}
	return true
}

func decodeVocab(raw json.RawMessage) map[string]VocabEntry {
	out := make(map[string]VocabEntry)

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return out
	}

	for word, v := range entries {
		key := NormalizeWord(word)
		if key == "" {
			continue
		}

		var entry VocabEntry
		if err := json.Unmarshal(v, &entry); err != nil {
			continue
		}
		if _, dup := out[key]; !dup {
			out[key] = entry
		}
	}
	return out
}

// migrateLegacy rewrites version 1 field names in place.
func migrateLegacy(fields map[string]json.RawMessage) {
	if raw, ok := fields["todayXp"]; ok {
		delete(fields, "todayXp")

		dayRaw, hasDay := fields["day"]
		if !hasDay {
			dayRaw, hasDay = fields["dayKey"]
		}

		var day string
		var xp int
		if _, exists := fields["xpByDay"]; !exists && hasDay &&
			json.Unmarshal(dayRaw, &day) == nil && json.Unmarshal(raw, &xp) == nil && xp > 0 {
			if data, err := json.Marshal(map[string]int{day: xp}); err == nil {
				fields["xpByDay"] = data
			}
		}
	}

	for old, cur := range legacyRenames {
		raw, ok := fields[old]
		if !ok {
			continue
		}
		delete(fields, old)
		if _, exists := fields[cur]; !exists {
			fields[cur] = raw
		}
	}

	// Stars are derived from completed lessons now.
	delete(fields, "stars")
}
