package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultDailyGoalXP is the daily XP target shown on the home screen.
const DefaultDailyGoalXP = 50

// Settings stores the learner's client preferences.
type Settings struct {
	VoiceURI    string `json:"voiceURI"`    // preferred speech synthesis voice, empty for auto
	AutoSpeak   bool   `json:"autoSpeak"`   // play task audio automatically
	DailyGoalXP int    `json:"dailyGoalXp"` // XP needed to fill the daily bar
}

// NewSettings creates Settings with default values.
func NewSettings() *Settings {
	return &Settings{
		DailyGoalXP: DefaultDailyGoalXP,
	}
}

// DecodeSettings parses stored settings on top of the defaults.
func DecodeSettings(raw string) (*Settings, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 {
		return nil, ErrEmptyRecord
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if fields == nil {
		return nil, ErrEmptyRecord
	}

	return settingsFromFields(fields), nil
}

// EncodeSettings serializes settings for a storage backend.
func EncodeSettings(s *Settings) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}
	return string(data), nil
}

func settingsFromFields(fields map[string]json.RawMessage) *Settings {
	s := NewSettings()
	decodeField(fields, "voiceURI", &s.VoiceURI)
	decodeField(fields, "autoSpeak", &s.AutoSpeak)
	decodeField(fields, "dailyGoalXp", &s.DailyGoalXP)

	if s.DailyGoalXP <= 0 {
		s.DailyGoalXP = DefaultDailyGoalXP
	}
	return s
}
