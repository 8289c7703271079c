package controllers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"internhub/config"
	"internhub/models"
)

// Break-resume policies. "restore" recomputes the pre-break lateness
// classification from the recorded check-in time; "always_present" keeps the
// legacy behavior of resetting to PRESENT unconditionally.
const (
	ResumeRestore       = "restore"
	ResumeAlwaysPresent = "always_present"
)

// attendancePolicy holds the parsed time cutoffs and decides every status
// transition of the daily attendance state machine. It is pure: all inputs
// arrive as arguments, so tests can drive arbitrary clocks.
type attendancePolicy struct {
	lateCutoffMin int
	earlyLeaveMin int
	resume        string
}

// newAttendancePolicy parses the "HH:MM" cutoffs from configuration.
func newAttendancePolicy(cfg config.AttendanceConfig) (attendancePolicy, error) {
	late, err := parseClockMinutes(cfg.LateCutoff)
	if err != nil {
		return attendancePolicy{}, fmt.Errorf("late cutoff: %w", err)
	}
	early, err := parseClockMinutes(cfg.EarlyLeaveCutoff)
	if err != nil {
		return attendancePolicy{}, fmt.Errorf("early leave cutoff: %w", err)
	}
	resume := cfg.ResumePolicy
	if resume != ResumeAlwaysPresent {
		resume = ResumeRestore
	}
	return attendancePolicy{lateCutoffMin: late, earlyLeaveMin: early, resume: resume}, nil
}

// checkInStatus classifies a first check-in: PRESENT before the cutoff,
// LATE at or after it, LATE_EXCUSED when an approved late-arrival
// permission covers the date.
func (p attendancePolicy) checkInStatus(now time.Time, excused bool) string {
	if minutesOfDay(now) < p.lateCutoffMin {
		return models.AttendancePresent
	}
	if excused {
		return models.AttendanceLateExcused
	}
	return models.AttendanceLate
}

// checkOutStatus overwrites the prior status with EARLY_LEAVE when checking
// out before the cutoff; at or after it the prior status stands.
func (p attendancePolicy) checkOutStatus(now time.Time, prior string) string {
	if minutesOfDay(now) < p.earlyLeaveMin {
		return models.AttendanceEarlyLeave
	}
	return prior
}

// resumeStatus returns the status restored when a break ends.
func (p attendancePolicy) resumeStatus(checkInAt time.Time, excused bool) string {
	if p.resume == ResumeAlwaysPresent {
		return models.AttendancePresent
	}
	return p.checkInStatus(checkInAt, excused)
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// parseClockMinutes converts "HH:MM" into minutes since midnight.
func parseClockMinutes(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}
