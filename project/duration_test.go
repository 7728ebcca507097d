package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "github.com/planfile/planfile/error"
)

func TestProject_CalendarSeconds(t *testing.T) {
	tests := []struct {
		caption string
		value   float64
		unit    string
		want    int64
	}{
		{caption: "minutes", value: 1, unit: "min", want: 60},
		{caption: "hours", value: 1, unit: "h", want: 3600},
		{caption: "days", value: 1, unit: "d", want: 86400},
		{caption: "weeks", value: 1, unit: "w", want: 604800},
		{caption: "months", value: 1, unit: "m", want: 2629728},
		{caption: "years", value: 1, unit: "y", want: 31536000},
		{caption: "values scale linearly", value: 2.5, unit: "d", want: 216000},
	}
	p := New()
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			got, err := p.CalendarSeconds(tt.value, tt.unit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProject_WorkingSeconds(t *testing.T) {
	t.Run("a working day follows dailyworkinghours", func(t *testing.T) {
		p := New()
		p.DailyWorkingHours = 8
		got, err := p.WorkingSeconds(1, "d")
		require.NoError(t, err)
		assert.Equal(t, int64(8*3600), got)

		p.DailyWorkingHours = 6.5
		got, err = p.WorkingSeconds(1, "d")
		require.NoError(t, err)
		assert.Equal(t, int64(6.5*3600), got)
	})

	t.Run("minutes and hours are wall-clock sized", func(t *testing.T) {
		p := New()
		got, err := p.WorkingSeconds(3, "min")
		require.NoError(t, err)
		assert.Equal(t, int64(180), got)

		got, err = p.WorkingSeconds(2, "h")
		require.NoError(t, err)
		assert.Equal(t, int64(7200), got)
	})

	t.Run("a working year is yearlyworkingdays days", func(t *testing.T) {
		p := New()
		p.DailyWorkingHours = 8
		p.YearlyWorkingDays = 250
		got, err := p.WorkingSeconds(1, "y")
		require.NoError(t, err)
		assert.Equal(t, int64(250*8*3600), got)
	})
}

func TestProject_UnknownUnit(t *testing.T) {
	p := New()
	_, err := p.CalendarSeconds(1, "fortnight")
	require.Error(t, err)
	assert.Equal(t, "unknown_unit", perr.CodeOf(err))

	_, err = p.WorkingSeconds(1, "fortnight")
	require.Error(t, err)
	assert.Equal(t, "unknown_unit", perr.CodeOf(err))
}
