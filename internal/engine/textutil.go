package engine

import "strings"

// cleanTranscript trims whitespace and drops the blank-audio marker some
// backends emit for silent input.
func cleanTranscript(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.EqualFold(trimmed, "[BLANK_AUDIO]") {
		return ""
	}
	return trimmed
}

// resolveLanguage picks the language to report: the backend's detection when
// present, otherwise the configured hint, falling back to English when the
// hint requested auto detection and the backend stayed silent.
func resolveLanguage(detected, hint string) string {
	if trimmed := strings.TrimSpace(detected); trimmed != "" && !strings.EqualFold(trimmed, "auto") {
		return trimmed
	}
	if trimmed := strings.TrimSpace(hint); trimmed != "" && !strings.EqualFold(trimmed, "auto") {
		return trimmed
	}
	return "en"
}
