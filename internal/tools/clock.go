package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ClockTool reports the current date and time, optionally for a named
// IANA timezone. Formatting follows the configured conversation
// language so spoken answers read naturally.
type ClockTool struct {
	defaultTZ string
	language  string
	now       func() time.Time
}

// NewClockTool creates a clock tool with a default timezone and an
// output language ("de" for German, anything else for English).
func NewClockTool(defaultTZ, language string) *ClockTool {
	if defaultTZ == "" {
		defaultTZ = "Europe/Berlin"
	}
	return &ClockTool{
		defaultTZ: defaultTZ,
		language:  language,
		now:       time.Now,
	}
}

func (t *ClockTool) Name() string { return "current_time" }

func (t *ClockTool) Description() string {
	return "Get the current date and time, optionally for a specific IANA timezone such as \"America/New_York\"."
}

func (t *ClockTool) Spec() *Spec {
	return &Spec{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]Param{
			"timezone": {
				Type:        "string",
				Description: "IANA timezone name",
				Default:     t.defaultTZ,
			},
		},
	}
}

func (t *ClockTool) Validate(input *Input) error { return nil }

func (t *ClockTool) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	tz, ok := StringArg(input, "timezone")
	tz = strings.TrimSpace(tz)
	if !ok || tz == "" {
		tz = t.defaultTZ
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		// Unknown zone: answer with local time rather than failing the turn.
		now := t.now()
		return &Output{
			Success: true,
			Output: fmt.Sprintf("Unknown timezone %q; local time is %s.",
				tz, t.format(now)),
			Duration: time.Since(start),
		}, nil
	}

	now := t.now().In(loc)
	return &Output{
		Success:  true,
		Output:   fmt.Sprintf("Current time in %s: %s", tz, t.format(now)),
		Duration: time.Since(start),
	}, nil
}

var (
	germanWeekdays = [...]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"}
	germanMonths   = [...]string{"", "Januar", "Februar", "März", "April", "Mai", "Juni",
		"Juli", "August", "September", "Oktober", "November", "Dezember"}
)

func (t *ClockTool) format(now time.Time) string {
	if t.language == "de" {
		return fmt.Sprintf("%s, %d. %s %d, %02d:%02d:%02d Uhr",
			germanWeekdays[now.Weekday()],
			now.Day(), germanMonths[now.Month()], now.Year(),
			now.Hour(), now.Minute(), now.Second())
	}
	return now.Format("Monday, January 2, 2006, 15:04:05")
}
