// Pure time and policy arithmetic for the reminder engine: quiet hours,
// weekend muting and retry backoff. Nothing in this file touches storage.
package reminders

import (
	"strconv"
	"strings"
	"time"

	"randevu/types"
)

var defaultPolicy = types.ReminderPolicy{
	Enabled:                false,
	WhatsappOffsetsMinutes: []int{1440, 120},
	WeekendMute:            false,
	ManualSendConfirmation: true,
	QuietHours: types.QuietHours{
		Enabled:  false,
		Start:    "22:00",
		End:      "08:00",
		Timezone: "Europe/Istanbul",
	},
	Retry: types.RetryPolicy{
		MaxAttempts:         3,
		BackoffMinutes:      []int{30, 120, 360},
		EscalateOnExhausted: true,
	},
}

// ResolvePolicy fills in defaults for an absent or partially configured
// workspace policy blob. A nil pointer yields the full default policy
// (enabled=false, so reminder creation stays off until opted in).
func ResolvePolicy(p *types.ReminderPolicy) types.ReminderPolicy {
	if p == nil {
		return defaultPolicy
	}

	out := *p

	if len(out.WhatsappOffsetsMinutes) == 0 {
		out.WhatsappOffsetsMinutes = defaultPolicy.WhatsappOffsetsMinutes
	}

	if out.QuietHours.Timezone == "" {
		out.QuietHours.Timezone = defaultPolicy.QuietHours.Timezone
	}

	if out.QuietHours.Start == "" {
		out.QuietHours.Start = defaultPolicy.QuietHours.Start
	}

	if out.QuietHours.End == "" {
		out.QuietHours.End = defaultPolicy.QuietHours.End
	}

	if out.Retry.MaxAttempts <= 0 {
		out.Retry.MaxAttempts = defaultPolicy.Retry.MaxAttempts
	}

	if len(out.Retry.BackoffMinutes) == 0 {
		out.Retry.BackoffMinutes = defaultPolicy.Retry.BackoffMinutes
	}

	return out
}

// policyLocation resolves the policy's IANA timezone, falling back to UTC on
// a bad zone name rather than failing the whole batch.
func policyLocation(p types.ReminderPolicy) *time.Location {
	loc, err := time.LoadLocation(p.QuietHours.Timezone)

	if err != nil {
		return time.UTC
	}

	return loc
}

// parseClock parses "HH:MM" into minutes since local midnight. Returns -1 on
// malformed input, which disables the window rather than muting everything.
func parseClock(s string) int {
	hh, mm, ok := strings.Cut(s, ":")

	if !ok {
		return -1
	}

	h, err := strconv.Atoi(hh)

	if err != nil || h < 0 || h > 23 {
		return -1
	}

	m, err := strconv.Atoi(mm)

	if err != nil || m < 0 || m > 59 {
		return -1
	}

	return h*60 + m
}

// InQuietHours reports whether the instant falls inside the policy's quiet
// hours window, evaluated in the policy's timezone. Windows with start > end
// wrap midnight: membership is local >= start OR local < end. Membership is
// [start, end) in both cases.
func InQuietHours(instant time.Time, p types.ReminderPolicy) bool {
	if !p.QuietHours.Enabled {
		return false
	}

	start := parseClock(p.QuietHours.Start)
	end := parseClock(p.QuietHours.End)

	if start < 0 || end < 0 || start == end {
		return false
	}

	local := instant.In(policyLocation(p))
	minute := local.Hour()*60 + local.Minute()

	if start > end {
		return minute >= start || minute < end
	}

	return minute >= start && minute < end
}

// WeekendMuted reports whether weekend muting applies to the instant's local
// calendar day (Saturday or Sunday in the policy timezone).
func WeekendMuted(instant time.Time, p types.ReminderPolicy) bool {
	if !p.WeekendMute {
		return false
	}

	wd := instant.In(policyLocation(p)).Weekday()

	return wd == time.Saturday || wd == time.Sunday
}

// Muted reports whether any muting window (quiet hours or weekend mute)
// applies to the instant.
func Muted(instant time.Time, p types.ReminderPolicy) bool {
	return InQuietHours(instant, p) || WeekendMuted(instant, p)
}

// NextEligible advances a muted instant to the first instant at which no
// muting window applies anymore, or returns it unchanged if it is not muted.
// Used to defer, never cancel, reminders due inside a muted window.
func NextEligible(instant time.Time, p types.ReminderPolicy) time.Time {
	t := instant

	// A quiet window exit can land on a weekend and vice versa, so iterate.
	// Two windows can chain at most a handful of times before a weekday
	// morning is reached.
	for i := 0; i < 16; i++ {
		switch {
		case InQuietHours(t, p):
			t = quietHoursEnd(t, p)
		case WeekendMuted(t, p):
			t = nextMonday(t, p)
		default:
			return t
		}
	}

	return t
}

// quietHoursEnd returns the end boundary of the quiet window containing t.
func quietHoursEnd(t time.Time, p types.ReminderPolicy) time.Time {
	loc := policyLocation(p)
	local := t.In(loc)

	start := parseClock(p.QuietHours.Start)
	end := parseClock(p.QuietHours.End)
	minute := local.Hour()*60 + local.Minute()

	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	// In a midnight-wrapping window the evening side ends tomorrow, the
	// morning side ends today.
	if start > end && minute >= start {
		day = day.AddDate(0, 0, 1)
	}

	return day.Add(time.Duration(end) * time.Minute)
}

// nextMonday returns local midnight of the Monday following t.
func nextMonday(t time.Time, p types.ReminderPolicy) time.Time {
	loc := policyLocation(p)
	local := t.In(loc)

	days := 1

	if local.Weekday() == time.Saturday {
		days = 2
	}

	next := local.AddDate(0, 0, days)

	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, loc)
}

// Backoff returns the retry delay for a 0-based attempt index. Indices past
// the end of the backoff sequence clamp to its last value, so a short
// sequence still covers a larger max_attempts.
func Backoff(attemptIndex int, r types.RetryPolicy) time.Duration {
	if len(r.BackoffMinutes) == 0 {
		return time.Duration(defaultPolicy.Retry.BackoffMinutes[0]) * time.Minute
	}

	if attemptIndex < 0 {
		attemptIndex = 0
	}

	if attemptIndex >= len(r.BackoffMinutes) {
		attemptIndex = len(r.BackoffMinutes) - 1
	}

	return time.Duration(r.BackoffMinutes[attemptIndex]) * time.Minute
}
