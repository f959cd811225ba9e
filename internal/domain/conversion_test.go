package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPreviousMonth(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want Period
	}{
		{
			name: "mid month",
			now:  time.Date(2026, 8, 15, 3, 0, 0, 0, time.UTC),
			want: MonthPeriod(2026, time.July),
		},
		{
			name: "31st of a month after a 30-day month",
			now:  time.Date(2026, 7, 31, 23, 59, 0, 0, time.UTC),
			want: MonthPeriod(2026, time.June),
		},
		{
			name: "march 31 after february",
			now:  time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			want: MonthPeriod(2026, time.February),
		},
		{
			name: "january crosses the year",
			now:  time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC),
			want: MonthPeriod(2025, time.December),
		},
		{
			name: "non-UTC location",
			now:  time.Date(2026, 5, 31, 22, 0, 0, 0, time.FixedZone("x", -5*3600)),
			want: MonthPeriod(2026, time.May),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PreviousMonth(tc.now))
		})
	}
}

func TestPeriodContains(t *testing.T) {
	p := MonthPeriod(2026, time.June)

	assert.True(t, p.Contains(p.Start))
	assert.True(t, p.Contains(p.End.Add(-time.Second)))
	assert.False(t, p.Contains(p.End))
	assert.False(t, p.Contains(p.Start.Add(-time.Second)))

	assert.Equal(t, "2026-06", p.Label())
}
