package components

import (
	"fmt"
	"time"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/zsplay/internal/state"
)

// FormatDuration renders d the way the result and history views show it.
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}

// FormatTime renders a history timestamp.
func FormatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// ShortDigest returns the first 8 characters of a digest.
func ShortDigest(digest string) string {
	if len(digest) > 8 {
		return digest[:8]
	}
	return digest
}

// StatsLine summarizes the history counters in one sentence.
func StatsLine(s *state.Stats) string {
	return fmt.Sprintf("%d builds (%d failed), %d script runs, %d sessions",
		s.Builds, s.FailedBuilds, s.Executions, s.Sessions)
}

// languageBinding binds a language checkbox to the langs signal map.
func languageBinding(lang string) templ.Attributes {
	return templ.Attributes{"data-bind:langs." + lang: true}
}

func historyToggleURL(all bool) templ.SafeURL {
	if all {
		return "/history"
	}
	return "/history?all=1"
}

func historyToggleLabel(all bool) string {
	if all {
		return "Only this session"
	}
	return "All sessions"
}

func executionTarget(lang string) string {
	if lang == "" {
		return "gen"
	}
	return "gen/" + lang
}
