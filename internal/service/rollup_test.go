package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fibrotrack-server/internal/domain"
)

// stubEntryRepo serves a fixed entry set.
type stubEntryRepo struct {
	entries []*domain.DailyEntry
}

func (r *stubEntryRepo) Create(ctx context.Context, entry *domain.DailyEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubEntryRepo) GetByDate(ctx context.Context, userID int64, entryDate string) (*domain.DailyEntry, error) {
	for _, e := range r.entries {
		if e.UserID == userID && e.EntryDate == entryDate {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubEntryRepo) ListRange(ctx context.Context, userID int64, startDate, endDate string) ([]*domain.DailyEntry, error) {
	var out []*domain.DailyEntry
	for _, e := range r.entries {
		if e.UserID == userID && e.EntryDate >= startDate && e.EntryDate <= endDate {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubEntryRepo) ListAll(ctx context.Context, userID int64) ([]*domain.DailyEntry, error) {
	return r.entries, nil
}

// stubSummaryRepo records weekly inserts and the final report.
type stubSummaryRepo struct {
	weekly []*domain.WeeklySummary
	final  *domain.FinalReport
}

func (r *stubSummaryRepo) InsertWeekly(ctx context.Context, summary *domain.WeeklySummary) error {
	summary.ID = int64(len(r.weekly) + 1)
	r.weekly = append(r.weekly, summary)
	return nil
}

func (r *stubSummaryRepo) ListWeekly(ctx context.Context, userID int64) ([]*domain.WeeklySummary, error) {
	return r.weekly, nil
}

func (r *stubSummaryRepo) UpsertFinal(ctx context.Context, report *domain.FinalReport) error {
	r.final = report
	return nil
}

func (r *stubSummaryRepo) GetFinal(ctx context.Context, userID int64) (*domain.FinalReport, error) {
	if r.final == nil {
		return nil, domain.ErrNotFound
	}
	return r.final, nil
}

func intPtr(v int) *int { return &v }

func newRollup(entries *stubEntryRepo, summaries *stubSummaryRepo) *RollupService {
	return NewRollupService(entries, summaries, testScoring(), testLogger())
}

func TestWeekBounds(t *testing.T) {
	tests := []struct {
		date      string
		wantStart string
		wantEnd   string
	}{
		{"2026-03-02", "2026-03-02", "2026-03-08"}, // a Monday
		{"2026-03-04", "2026-03-02", "2026-03-08"}, // mid-week
		{"2026-03-08", "2026-03-02", "2026-03-08"}, // Sunday maps back
		{"2026-01-01", "2025-12-29", "2026-01-04"}, // year boundary
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			date, err := time.Parse("2006-01-02", tt.date)
			require.NoError(t, err)
			start, end := WeekBounds(date)
			assert.Equal(t, tt.wantStart, start.Format("2006-01-02"))
			assert.Equal(t, tt.wantEnd, end.Format("2006-01-02"))
		})
	}
}

func TestComputeWeekly_Averages(t *testing.T) {
	entries := &stubEntryRepo{entries: []*domain.DailyEntry{
		{UserID: 1, EntryDate: "2026-03-02", PainScore: intPtr(6), FatigueScore: intPtr(8)},
		{UserID: 1, EntryDate: "2026-03-03", PainScore: intPtr(4)},
		{UserID: 1, EntryDate: "2026-03-04", FatigueScore: intPtr(6), StressScore: intPtr(5)},
	}}
	summaries := &stubSummaryRepo{}
	svc := newRollup(entries, summaries)

	date, _ := time.Parse("2006-01-02", "2026-03-04")
	summary, err := svc.ComputeWeekly(context.Background(), 1, date)

	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", summary.WeekStart)
	assert.Equal(t, "2026-03-08", summary.WeekEnd)

	// Pain: (6+4)/2 over the two entries that supplied it.
	require.NotNil(t, summary.Averages.AvgPain)
	assert.InDelta(t, 5.0, *summary.Averages.AvgPain, 1e-9)
	// Fatigue: (8+6)/2.
	require.NotNil(t, summary.Averages.AvgFatigue)
	assert.InDelta(t, 7.0, *summary.Averages.AvgFatigue, 1e-9)
	// Stress: only one entry supplied it.
	require.NotNil(t, summary.Averages.AvgStress)
	assert.InDelta(t, 5.0, *summary.Averages.AvgStress, 1e-9)
	// Nobody supplied mood or sleep.
	assert.Nil(t, summary.Averages.AvgMood)
	assert.Nil(t, summary.Averages.AvgSleep)
	// WPI/SSS default to zero when unsupplied.
	assert.Equal(t, 0.0, summary.Averages.AvgWPICount)
	assert.Equal(t, 0.0, summary.Averages.AvgSSSTotal)

	// A fresh row was inserted.
	assert.Len(t, summaries.weekly, 1)
}

func TestComputeWeekly_FreshInsertPerComputation(t *testing.T) {
	entries := &stubEntryRepo{entries: []*domain.DailyEntry{
		{UserID: 1, EntryDate: "2026-03-02", PainScore: intPtr(5)},
	}}
	summaries := &stubSummaryRepo{}
	svc := newRollup(entries, summaries)

	date, _ := time.Parse("2006-01-02", "2026-03-02")
	_, err := svc.ComputeWeekly(context.Background(), 1, date)
	require.NoError(t, err)
	_, err = svc.ComputeWeekly(context.Background(), 1, date)
	require.NoError(t, err)

	assert.Len(t, summaries.weekly, 2, "every computation appends a row")
}

func TestComputeWeekly_ACROnAverages(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	entries := &stubEntryRepo{entries: []*domain.DailyEntry{
		{
			UserID: 1, EntryDate: "2026-03-02",
			WPIRegions: []string{"r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8"},
			SSS:        &domain.SSSBreakdown{Fatigue: f(3), Sleep: f(2), Cognitive: f(1)},
		},
		{
			UserID: 1, EntryDate: "2026-03-03",
			WPIRegions: []string{"r1", "r2", "r3", "r4", "r5", "r6", "r7"},
			SSS:        &domain.SSSBreakdown{Fatigue: f(2), Sleep: f(2), Cognitive: f(1)},
		},
	}}
	summaries := &stubSummaryRepo{}
	svc := newRollup(entries, summaries)

	date, _ := time.Parse("2006-01-02", "2026-03-02")
	summary, err := svc.ComputeWeekly(context.Background(), 1, date)

	require.NoError(t, err)
	assert.InDelta(t, 7.5, summary.Averages.AvgWPICount, 1e-9)
	assert.InDelta(t, 5.5, summary.Averages.AvgSSSTotal, 1e-9)
	assert.Equal(t, domain.ACRMet, summary.ACRStatus)
}

func TestComputeWeekly_NoEntries(t *testing.T) {
	svc := newRollup(&stubEntryRepo{}, &stubSummaryRepo{})

	date, _ := time.Parse("2006-01-02", "2026-03-02")
	_, err := svc.ComputeWeekly(context.Background(), 1, date)

	var insufficientErr *domain.InsufficientDataError
	assert.ErrorAs(t, err, &insufficientErr)
}

func weeklyFixture(n int) []*domain.WeeklySummary {
	f := func(v float64) *float64 { return &v }
	weeks := make([]*domain.WeeklySummary, 0, n)
	start, _ := time.Parse("2006-01-02", "2026-01-05") // a Monday
	for i := 0; i < n; i++ {
		ws := start.AddDate(0, 0, 7*i)
		weeks = append(weeks, &domain.WeeklySummary{
			ID:        int64(i + 1),
			UserID:    1,
			WeekStart: ws.Format("2006-01-02"),
			WeekEnd:   ws.AddDate(0, 0, 6).Format("2006-01-02"),
			Averages: domain.WeeklyAverages{
				AvgPain:    f(float64(8 - i%4)),
				AvgFatigue: f(6.0),
				AvgStress:  f(5.0),
				AvgMood:    f(4.0),
				AvgSleep:   f(5.0),
			},
		})
	}
	return weeks
}

func TestComputeFinal_RequiresMinimumWeeks(t *testing.T) {
	summaries := &stubSummaryRepo{weekly: weeklyFixture(11)}
	svc := newRollup(&stubEntryRepo{}, summaries)

	_, err := svc.ComputeFinal(context.Background(), 1)

	var insufficientErr *domain.InsufficientDataError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, 12, insufficientErr.Required)
	assert.Equal(t, 11, insufficientErr.Actual)
	assert.Nil(t, summaries.final)
}

func TestComputeFinal_TrendAndUpsert(t *testing.T) {
	weeks := weeklyFixture(12)
	// First week pain 8, last week pain 8-11%4 = 5.
	summaries := &stubSummaryRepo{weekly: weeks}
	svc := newRollup(&stubEntryRepo{}, summaries)

	report, err := svc.ComputeFinal(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, report.WeeklyData, 12)
	require.Contains(t, report.Trend, "avg_pain")

	pain := report.Trend["avg_pain"]
	require.NotNil(t, pain.Delta)
	assert.InDelta(t, 8.0, *pain.Start, 1e-9)
	assert.InDelta(t, 5.0, *pain.End, 1e-9)
	assert.InDelta(t, -3.0, *pain.Delta, 1e-9)

	for _, metric := range domain.TrendMetrics {
		assert.Contains(t, report.Trend, metric)
	}

	assert.Equal(t, 0, report.ACROverall)
	assert.Same(t, report, summaries.final, "report stored via upsert")
}

func TestComputeFinal_ACROverall(t *testing.T) {
	weeks := weeklyFixture(12)
	weeks[3].ACRStatus = domain.ACRMet
	summaries := &stubSummaryRepo{weekly: weeks}
	svc := newRollup(&stubEntryRepo{}, summaries)

	report, err := svc.ComputeFinal(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 1, report.ACROverall)
}

func TestComputeFinal_DuplicateWeeksCollapse(t *testing.T) {
	weeks := weeklyFixture(12)
	// Recomputation of the first week appended later with a new average.
	f := func(v float64) *float64 { return &v }
	dup := *weeks[0]
	dup.ID = 99
	dup.Averages.AvgPain = f(2.0)

	summaries := &stubSummaryRepo{weekly: append(weeks, &dup)}
	svc := newRollup(&stubEntryRepo{}, summaries)

	report, err := svc.ComputeFinal(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, report.WeeklyData, 12, "recomputed week replaces, not extends")
	assert.InDelta(t, 2.0, *report.Trend["avg_pain"].Start, 1e-9, "latest recomputation wins")
}

func TestComputeFinal_TrendDeltaWithMissingEnd(t *testing.T) {
	weeks := weeklyFixture(12)
	weeks[11].Averages.AvgMood = nil
	summaries := &stubSummaryRepo{weekly: weeks}
	svc := newRollup(&stubEntryRepo{}, summaries)

	report, err := svc.ComputeFinal(context.Background(), 1)

	require.NoError(t, err)
	mood := report.Trend["avg_mood"]
	assert.NotNil(t, mood.Start)
	assert.Nil(t, mood.End)
	assert.Nil(t, mood.Delta, "delta needs both endpoints")
}

func TestDistinctWeeks_Ordering(t *testing.T) {
	weeks := weeklyFixture(3)
	got := distinctWeeks(weeks)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].WeekStart, got[i].WeekStart,
			fmt.Sprintf("weeks out of order at %d", i))
	}
}
