package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/domain"
)

// RollupService derives weekly summaries and the multi-week final report
// from stored daily entries. Rollups are recomputed from source entries on
// every request; weekly rows are append-only history.
type RollupService struct {
	entries   domain.EntryRepository
	summaries domain.SummaryRepository
	scoring   domain.ScoringConfig
	logger    *logrus.Logger
}

// NewRollupService creates a rollup service.
func NewRollupService(
	entries domain.EntryRepository,
	summaries domain.SummaryRepository,
	scoring domain.ScoringConfig,
	logger *logrus.Logger,
) *RollupService {
	return &RollupService{
		entries:   entries,
		summaries: summaries,
		scoring:   scoring,
		logger:    logger,
	}
}

// WeekBounds returns the Monday and Sunday dates of the ISO week containing
// the given date.
func WeekBounds(date time.Time) (start, end time.Time) {
	offset := int(date.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	start = date.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 6)
	return start, end
}

// ComputeWeekly derives the summary for the week containing the given date
// and inserts a fresh row. Score averages are means over the entries that
// supplied the field; a metric nobody supplied stays nil rather than zero.
func (s *RollupService) ComputeWeekly(ctx context.Context, userID int64, date time.Time) (*domain.WeeklySummary, error) {
	start, end := WeekBounds(date)
	startStr := start.Format("2006-01-02")
	endStr := end.Format("2006-01-02")

	entries, err := s.entries.ListRange(ctx, userID, startStr, endStr)
	if err != nil {
		return nil, fmt.Errorf("listing entries for week %s: %w", startStr, err)
	}
	if len(entries) == 0 {
		return nil, &domain.InsufficientDataError{Required: 1, Actual: 0}
	}

	avgs := averageEntries(entries)
	_, week := start.ISOWeek()

	summary := &domain.WeeklySummary{
		UserID:     userID,
		WeekStart:  startStr,
		WeekEnd:    endStr,
		WeekNumber: week,
		Averages:   avgs,
		ACRStatus:  EvaluateACR(avgs.AvgWPICount, avgs.AvgSSSTotal),
	}

	if err := s.summaries.InsertWeekly(ctx, summary); err != nil {
		return nil, fmt.Errorf("inserting weekly summary: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"week_start": startStr,
		"entries":    len(entries),
		"acr_status": summary.ACRStatus,
	}).Info("Weekly summary computed")

	return summary, nil
}

// ListWeekly returns the stored weekly summary history for a user.
func (s *RollupService) ListWeekly(ctx context.Context, userID int64) ([]*domain.WeeklySummary, error) {
	return s.summaries.ListWeekly(ctx, userID)
}

// ComputeFinal builds the final report over the stored weekly summaries.
// It requires at least the configured minimum of distinct weeks, computes
// start-vs-end trend deltas per tracked metric and replaces any previous
// report for the user.
func (s *RollupService) ComputeFinal(ctx context.Context, userID int64) (*domain.FinalReport, error) {
	weeks, err := s.summaries.ListWeekly(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing weekly summaries: %w", err)
	}

	distinct := distinctWeeks(weeks)
	if len(distinct) < s.scoring.MinReportWeeks {
		return nil, &domain.InsufficientDataError{
			Required: s.scoring.MinReportWeeks,
			Actual:   len(distinct),
		}
	}

	report := &domain.FinalReport{
		UserID:      userID,
		WeeklyData:  make([]domain.WeeklySummary, 0, len(distinct)),
		Trend:       make(map[string]domain.TrendDelta, len(domain.TrendMetrics)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, w := range distinct {
		report.WeeklyData = append(report.WeeklyData, *w)
		if w.ACRStatus == domain.ACRMet {
			report.ACROverall = 1
		}
	}

	first := distinct[0]
	last := distinct[len(distinct)-1]
	for _, metric := range domain.TrendMetrics {
		report.Trend[metric] = trendDelta(metricValue(first, metric), metricValue(last, metric))
	}

	if err := s.summaries.UpsertFinal(ctx, report); err != nil {
		return nil, fmt.Errorf("storing final report: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"weeks":       len(distinct),
		"acr_overall": report.ACROverall,
	}).Info("Final report generated")

	return report, nil
}

// GetFinal returns the stored final report for a user.
func (s *RollupService) GetFinal(ctx context.Context, userID int64) (*domain.FinalReport, error) {
	return s.summaries.GetFinal(ctx, userID)
}

// averageEntries computes per-metric means. Only entries that supplied a
// field participate in its mean; the WPI and SSS averages default to zero
// when no entry carried them.
func averageEntries(entries []*domain.DailyEntry) domain.WeeklyAverages {
	var avgs domain.WeeklyAverages

	avgs.AvgPain = meanOf(entries, func(e *domain.DailyEntry) *float64 { return intPtrFloat(e.PainScore) })
	avgs.AvgFatigue = meanOf(entries, func(e *domain.DailyEntry) *float64 { return intPtrFloat(e.FatigueScore) })
	avgs.AvgStress = meanOf(entries, func(e *domain.DailyEntry) *float64 { return intPtrFloat(e.StressScore) })
	avgs.AvgMood = meanOf(entries, func(e *domain.DailyEntry) *float64 { return intPtrFloat(e.MoodScore) })
	avgs.AvgSleep = meanOf(entries, func(e *domain.DailyEntry) *float64 { return intPtrFloat(e.SleepQuality) })

	if wpi := meanOf(entries, func(e *domain.DailyEntry) *float64 {
		if e.WPIRegions == nil {
			return nil
		}
		v := float64(len(e.WPIRegions))
		return &v
	}); wpi != nil {
		avgs.AvgWPICount = *wpi
	}

	if sss := meanOf(entries, func(e *domain.DailyEntry) *float64 {
		if !e.SSS.Answered() {
			return nil
		}
		v := e.SSS.Total()
		return &v
	}); sss != nil {
		avgs.AvgSSSTotal = *sss
	}

	return avgs
}

// meanOf averages the non-nil values extracted from the entries. Returns
// nil when no entry supplied the field.
func meanOf(entries []*domain.DailyEntry, extract func(*domain.DailyEntry) *float64) *float64 {
	var sum float64
	var n int
	for _, e := range entries {
		if v := extract(e); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

func intPtrFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// distinctWeeks deduplicates by week start, keeping the most recent row per
// week. Input is expected ordered by week start ascending, created_at
// ascending.
func distinctWeeks(weeks []*domain.WeeklySummary) []*domain.WeeklySummary {
	index := make(map[string]int, len(weeks))
	out := make([]*domain.WeeklySummary, 0, len(weeks))
	for _, w := range weeks {
		if i, seen := index[w.WeekStart]; seen {
			out[i] = w
			continue
		}
		index[w.WeekStart] = len(out)
		out = append(out, w)
	}
	return out
}

// trendDelta computes the movement between the first and last observation.
// The delta is nil unless both ends are present.
func trendDelta(start, end *float64) domain.TrendDelta {
	d := domain.TrendDelta{Start: start, End: end}
	if start != nil && end != nil {
		delta := *end - *start
		d.Delta = &delta
	}
	return d
}

func metricValue(w *domain.WeeklySummary, metric string) *float64 {
	switch metric {
	case "avg_pain":
		return w.Averages.AvgPain
	case "avg_fatigue":
		return w.Averages.AvgFatigue
	case "avg_stress":
		return w.Averages.AvgStress
	case "avg_mood":
		return w.Averages.AvgMood
	case "avg_sleep":
		return w.Averages.AvgSleep
	}
	return nil
}
