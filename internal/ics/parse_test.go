package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func icsPayload(body string) []byte {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//leavenow test//EN",
		body,
		"END:VCALENDAR",
	}
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func TestParseICS_BasicEvent(t *testing.T) {
	payload := icsPayload(strings.Join([]string{
		"BEGIN:VEVENT",
		"UID:ev1",
		"DTSTART:20260310T140000Z",
		"DTEND:20260310T150000Z",
		"SUMMARY:Dentist",
		"LOCATION:Main Street 5",
		"END:VEVENT",
	}, "\r\n"))

	events, err := ParseICS(Source{ID: "test"}, payload)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "ev1", ev.UID)
	assert.Equal(t, "Dentist", ev.Summary)
	assert.Equal(t, "Main Street 5", ev.Location)
	assert.True(t, ev.Start.Equal(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)))
	assert.False(t, ev.AllDay)
}

func TestParseICS_AllDayDetected(t *testing.T) {
	payload := icsPayload(strings.Join([]string{
		"BEGIN:VEVENT",
		"UID:ev1",
		"DTSTART;VALUE=DATE:20260310",
		"SUMMARY:Holiday",
		"END:VEVENT",
	}, "\r\n"))

	events, err := ParseICS(Source{ID: "test"}, payload)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].AllDay)
}

func TestParseICS_RecurrenceKept(t *testing.T) {
	payload := icsPayload(strings.Join([]string{
		"BEGIN:VEVENT",
		"UID:ev1",
		"DTSTART:20260302T093000Z",
		"SUMMARY:Standup",
		"RRULE:FREQ=DAILY",
		"EXDATE:20260310T093000Z",
		"END:VEVENT",
	}, "\r\n"))

	events, err := ParseICS(Source{ID: "test"}, payload)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "FREQ=DAILY", events[0].RawRRule)
	require.Len(t, events[0].ExDates, 1)
	assert.True(t, events[0].ExDates[0].Equal(time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)))
}

func TestParseICS_MissingUIDSkipped(t *testing.T) {
	payload := icsPayload(strings.Join([]string{
		"BEGIN:VEVENT",
		"DTSTART:20260310T140000Z",
		"SUMMARY:No UID",
		"END:VEVENT",
	}, "\r\n"))

	events, err := ParseICS(Source{ID: "test"}, payload)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseICS_EmptyBody(t *testing.T) {
	_, err := ParseICS(Source{ID: "test"}, nil)
	assert.Error(t, err)
}
