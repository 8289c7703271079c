package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internhub/config"
	"internhub/models"
)

func testPolicy(t *testing.T, resume string) attendancePolicy {
	t.Helper()
	p, err := newAttendancePolicy(config.AttendanceConfig{
		LateCutoff:       "08:15",
		EarlyLeaveCutoff: "16:00",
		ResumePolicy:     resume,
	})
	require.NoError(t, err)
	return p
}

func clock(hour, min int) time.Time {
	return time.Date(2026, 3, 2, hour, min, 0, 0, time.Local)
}

func TestCheckInStatus(t *testing.T) {
	p := testPolicy(t, ResumeRestore)

	tests := []struct {
		name    string
		at      time.Time
		excused bool
		want    string
	}{
		{"before cutoff", clock(8, 10), false, models.AttendancePresent},
		{"exactly at cutoff", clock(8, 15), false, models.AttendanceLate},
		{"after cutoff", clock(8, 20), false, models.AttendanceLate},
		{"after cutoff with approved late arrival", clock(8, 20), true, models.AttendanceLateExcused},
		{"before cutoff excused flag ignored", clock(7, 59), true, models.AttendancePresent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.checkInStatus(tt.at, tt.excused))
		})
	}
}

func TestCheckOutStatus(t *testing.T) {
	p := testPolicy(t, ResumeRestore)

	tests := []struct {
		name  string
		at    time.Time
		prior string
		want  string
	}{
		{"early leave overwrites present", clock(15, 0), models.AttendancePresent, models.AttendanceEarlyLeave},
		{"early leave overwrites late", clock(15, 59), models.AttendanceLate, models.AttendanceEarlyLeave},
		{"at cutoff keeps prior", clock(16, 0), models.AttendanceLate, models.AttendanceLate},
		{"after cutoff keeps prior", clock(17, 0), models.AttendancePresent, models.AttendancePresent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.checkOutStatus(tt.at, tt.prior))
		})
	}
}

func TestResumeStatusRestore(t *testing.T) {
	p := testPolicy(t, ResumeRestore)

	assert.Equal(t, models.AttendancePresent, p.resumeStatus(clock(8, 0), false))
	assert.Equal(t, models.AttendanceLate, p.resumeStatus(clock(9, 30), false))
	assert.Equal(t, models.AttendanceLateExcused, p.resumeStatus(clock(9, 30), true))
}

func TestResumeStatusAlwaysPresent(t *testing.T) {
	p := testPolicy(t, ResumeAlwaysPresent)

	assert.Equal(t, models.AttendancePresent, p.resumeStatus(clock(9, 30), false))
	assert.Equal(t, models.AttendancePresent, p.resumeStatus(clock(9, 30), true))
}

func TestNewAttendancePolicyRejectsBadCutoff(t *testing.T) {
	_, err := newAttendancePolicy(config.AttendanceConfig{
		LateCutoff:       "8am",
		EarlyLeaveCutoff: "16:00",
	})
	assert.Error(t, err)

	_, err = newAttendancePolicy(config.AttendanceConfig{
		LateCutoff:       "08:15",
		EarlyLeaveCutoff: "25:00",
	})
	assert.Error(t, err)
}

func TestParseClockMinutes(t *testing.T) {
	n, err := parseClockMinutes("08:15")
	require.NoError(t, err)
	assert.Equal(t, 495, n)

	n, err = parseClockMinutes("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = parseClockMinutes("")
	assert.Error(t, err)
}
