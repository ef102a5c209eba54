package bot

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plannr/internal/model"
)

var today = civil.Date{Year: 2024, Month: time.June, Day: 10}

func TestParseAddArgs_Full(t *testing.T) {
	in, err := parseAddArgs(" Gym | work | 2024-06-12 | HIGH | mon, 3,wed ", today, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Gym", in.Title)
	assert.Equal(t, model.CategoryWork, in.Category)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), in.DueDate)
	assert.Equal(t, model.ImportanceHigh, in.Importance)
	assert.Equal(t, []int{1, 3}, in.Days)
}

func TestParseAddArgs_Defaults(t *testing.T) {
	in, err := parseAddArgs("Read a book", today, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryPersonal, in.Category)
	assert.True(t, in.DueDate.IsZero())
	assert.Equal(t, model.ImportanceNone, in.Importance)
	assert.Nil(t, in.Days)

	in, err = parseAddArgs("Call | | tomorrow", today, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryPersonal, in.Category)
	assert.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), in.DueDate)
}

func TestParseAddArgs_Errors(t *testing.T) {
	for _, raw := range []string{
		"",
		" | Work",
		"x | Gym",
		"x | Work | 12/06/2024",
		"x | Work | today | urgent",
		"x | Work | today | low | 8",
		"a | b | c | d | e | f",
	} {
		_, err := parseAddArgs(raw, today, time.UTC)
		assert.Error(t, err, raw)
	}
}

func TestParseDue(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	got, err := parseDue("today", today, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, loc), got)
	assert.Equal(t, today, civil.DateOf(got))
}

func TestParseWeekArg(t *testing.T) {
	n, err := parseWeekArg("")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	n, err = parseWeekArg(" 3 ")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for _, bad := range []string{"0", "32", "x"} {
		_, err := parseWeekArg(bad)
		assert.Error(t, err, bad)
	}
}
