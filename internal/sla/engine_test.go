package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

var bangkok = time.FixedZone("ICT", 7*60*60)

func TestComputeDeadlineUsesPolicyHours(t *testing.T) {
	created := time.Date(2025, 3, 10, 9, 30, 0, 0, bangkok)

	cases := map[domain.IssueType]time.Duration{
		domain.IssueNewDelivery:   48 * time.Hour,
		domain.IssueDamagedParcel: 24 * time.Hour,
		domain.IssueOther:         24 * time.Hour,
	}
	for issue, budget := range cases {
		t.Run(string(issue), func(t *testing.T) {
			got := ComputeDeadline(created, issue, domain.DefaultPolicies)
			assert.Equal(t, created.Add(budget), got)
		})
	}
}

func TestClassifyDamagedParcelScenario(t *testing.T) {
	created := time.Date(2025, 3, 10, 8, 0, 0, 0, bangkok)
	deadline := ComputeDeadline(created, domain.IssueDamagedParcel, domain.DefaultPolicies)
	require.Equal(t, domain.TicketPriorityHigh, domain.DefaultPolicies.PriorityFor(domain.IssueDamagedParcel))

	assert.Equal(t, domain.SLAStatusOnTrack, Classify(created, deadline, created.Add(19*time.Hour), false))
	assert.Equal(t, domain.SLAStatusAtRisk, Classify(created, deadline, created.Add(19*time.Hour+12*time.Minute), false))
	assert.Equal(t, domain.SLAStatusAtRisk, Classify(created, deadline, deadline, false))
	assert.Equal(t, domain.SLAStatusBreached, Classify(created, deadline, created.Add(25*time.Hour), false))

	remaining := Remaining(created.Add(25*time.Hour), deadline)
	assert.True(t, remaining.IsOverdue)
	assert.InDelta(t, -1.0, remaining.Hours, 0.0001)
	assert.Equal(t, "เกิน 1 ชั่วโมง", remaining.DisplayText)
}

func TestClassifyResolvedIsAlwaysOnTrack(t *testing.T) {
	created := time.Date(2025, 3, 10, 8, 0, 0, 0, bangkok)
	deadline := created.Add(24 * time.Hour)

	for _, offset := range []time.Duration{0, 20 * time.Hour, 30 * time.Hour, 400 * time.Hour} {
		assert.Equal(t, domain.SLAStatusOnTrack, Classify(created, deadline, created.Add(offset), true))
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	created := time.Date(2025, 3, 10, 8, 0, 0, 0, bangkok)
	deadline := created.Add(48 * time.Hour)

	rank := map[domain.SLAStatus]int{
		domain.SLAStatusOnTrack:  0,
		domain.SLAStatusAtRisk:   1,
		domain.SLAStatusBreached: 2,
	}
	prev := 0
	for step := time.Duration(0); step <= 60*time.Hour; step += 7 * time.Minute {
		got := rank[Classify(created, deadline, created.Add(step), false)]
		require.GreaterOrEqual(t, got, prev, "regressed at %s", step)
		prev = got
	}
	assert.Equal(t, 2, prev)
}

func TestClassifyZeroBudget(t *testing.T) {
	created := time.Date(2025, 3, 10, 8, 0, 0, 0, bangkok)

	assert.Equal(t, domain.SLAStatusBreached, Classify(created, created, created, false))
	assert.Equal(t, domain.SLAStatusBreached, Classify(created, created, created.Add(time.Second), false))
	assert.Equal(t, domain.SLAStatusOnTrack, Classify(created, created, created.Add(-time.Second), false))
}

func TestRemainingDisplayText(t *testing.T) {
	deadline := time.Date(2025, 3, 12, 8, 0, 0, 0, bangkok)

	tests := []struct {
		name    string
		before  time.Duration
		want    string
		overdue bool
	}{
		{name: "minutes", before: 45 * time.Minute, want: "45 นาที"},
		{name: "hours", before: 5*time.Hour + 20*time.Minute, want: "5 ชั่วโมง"},
		{name: "days", before: 26 * time.Hour, want: "1 วัน 2 ชั่วโมง"},
		{name: "rounding carries into days", before: 47*time.Hour + 45*time.Minute, want: "2 วัน 0 ชั่วโมง"},
		{name: "just under a day", before: 23*time.Hour + 40*time.Minute, want: "1 วัน 0 ชั่วโมง"},
		{name: "overdue minutes", before: -10 * time.Minute, want: "เกิน 10 นาที", overdue: true},
		{name: "overdue days", before: -50 * time.Hour, want: "เกิน 2 วัน 2 ชั่วโมง", overdue: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Remaining(deadline.Add(-tc.before), deadline)
			assert.Equal(t, tc.want, got.DisplayText)
			assert.Equal(t, tc.overdue, got.IsOverdue)
		})
	}
}

func TestNeedsWarningCooldown(t *testing.T) {
	created := time.Date(2025, 3, 10, 8, 0, 0, 0, bangkok)
	deadline := created.Add(24 * time.Hour)

	early := created.Add(2 * time.Hour)
	assert.False(t, NeedsWarning(created, deadline, nil, early))

	first := created.Add(20 * time.Hour)
	require.True(t, NeedsWarning(created, deadline, nil, first))

	warned := first
	assert.False(t, NeedsWarning(created, deadline, &warned, first.Add(10*time.Minute)))
	assert.False(t, NeedsWarning(created, deadline, &warned, first.Add(30*time.Minute)))
	assert.True(t, NeedsWarning(created, deadline, &warned, first.Add(31*time.Minute)))

	breachedAt := created.Add(26 * time.Hour)
	recent := breachedAt.Add(-5 * time.Minute)
	assert.False(t, NeedsWarning(created, deadline, &recent, breachedAt))
	assert.True(t, NeedsWarning(created, deadline, nil, breachedAt))
}

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2025, 3, 10, 23, 59, 59, 0, bangkok)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, bangkok), StartOfDay(ts))
}
