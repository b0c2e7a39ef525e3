package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "plain date", input: "2024-03-01", want: NewDate(2024, time.March, 1)},
		{name: "rfc3339", input: "2024-03-01T23:30:00Z", want: NewDate(2024, time.March, 1)},
		{name: "sqlite timestamp text", input: "2024-03-01 00:00:00+00:00", want: NewDate(2024, time.March, 1)},
		{name: "garbage", input: "yesterday", wantErr: true},
		{name: "invalid day", input: "2024-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestDateAddDaysCrossesMonthAndYear(t *testing.T) {
	d := NewDate(2023, time.December, 31)
	assert.Equal(t, "2024-01-01", d.AddDays(1).String())
	assert.Equal(t, "2024-02-29", NewDate(2024, time.March, 1).AddDays(-1).String())
}

func TestDateOfKeepsLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	ts := time.Date(2024, time.May, 2, 1, 0, 0, 0, loc)
	assert.Equal(t, "2024-05-02", DateOf(ts).String())
}

func TestDateScan(t *testing.T) {
	want := NewDate(2024, time.July, 4)
	for _, src := range []interface{}{
		time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC),
		"2024-07-04",
		[]byte("2024-07-04"),
	} {
		var d Date
		require.NoError(t, d.Scan(src))
		assert.True(t, d.Equal(want))
	}

	var d Date
	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
	assert.Error(t, d.Scan(42))
}

func TestDateJSON(t *testing.T) {
	task := Task{Title: "Run", Date: NewDate(2024, time.January, 15)}
	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date":"2024-01-15"`)

	var decoded Task
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Date.Equal(task.Date))

	value, err := decoded.Date.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", value)
}

func TestTaskUpdateIsEmpty(t *testing.T) {
	assert.True(t, TaskUpdate{}.IsEmpty())
	done := true
	assert.False(t, TaskUpdate{Completed: &done}.IsEmpty())
}

func TestUserPublicHidesPrivateFields(t *testing.T) {
	u := User{ID: 1, Username: "ana", Email: "ana@example.com", PasswordHash: "hash"}
	data, err := json.Marshal(u.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ana@example.com")
	assert.NotContains(t, string(data), "hash")
}
