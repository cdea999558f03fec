package telegram

import "strings"

// Callback action constants.
const (
	actionStats    = "stats"
	actionExport   = "export"
	actionReset    = "reset"
	actionSettings = "settings"
)

const (
	resetConfirm = "confirm"
	resetCancel  = "cancel"
)

// Settings sub-actions.
const (
	settingsMenu      = "menu"
	settingsGoal      = "goal"
	settingsAutoSpeak = "autospeak"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")

	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

func (cd callbackData) param(i int) string {
	if i < len(cd.Params) {
		return cd.Params[i]
	}
	return ""
}

func buildStatsCallback() string {
	return actionStats
}

func buildExportCallback() string {
	return actionExport
}

func buildResetConfirmCallback() string {
	return callbackData{Action: actionReset, Params: []string{resetConfirm}}.encode()
}

func buildResetCancelCallback() string {
	return callbackData{Action: actionReset, Params: []string{resetCancel}}.encode()
}

// buildSettingsCallback creates callback for settings actions.
func buildSettingsCallback(parts ...string) string {
	return callbackData{Action: actionSettings, Params: parts}.encode()
}
