package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pivotapp/pivot/internal/model"
	"github.com/pivotapp/pivot/internal/repository"
)

var (
	ErrInvalidOutcome = errors.New("outcome must be resisted, gave_in or delayed")
	ErrHabitRequired  = errors.New("habitId is required")
	ErrInvalidBucket  = errors.New("bucket must be hour or day")
)

// UrgeStats are the per-outcome totals for one user. Buckets with no
// events are present as zero, never omitted.
type UrgeStats struct {
	TotalResisted int `json:"totalResisted"`
	TotalGaveIn   int `json:"totalGaveIn"`
	TotalDelayed  int `json:"totalDelayed"`
	TotalUrges    int `json:"totalUrges"`
}

// HabitStats is the per-habit outcome breakdown.
type HabitStats struct {
	HabitID       string `json:"habitId"`
	HabitName     string `json:"habitName"`
	TotalResisted int    `json:"totalResisted"`
	TotalGaveIn   int    `json:"totalGaveIn"`
	TotalDelayed  int    `json:"totalDelayed"`
	TotalUrges    int    `json:"totalUrges"`
}

// TimeSeriesPoint is one (bucket, habit) count for charting.
type TimeSeriesPoint struct {
	Bucket    string `json:"bucket"`
	HabitName string `json:"habitName"`
	Count     int    `json:"count"`
}

// PaginatedUrges is a page of urge events newest-first plus the total count.
type PaginatedUrges struct {
	Urges  []*model.Urge `json:"urges"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type UrgeService struct {
	urgeRepository repository.UrgeRepository
}

func NewUrgeService(urgeRepository repository.UrgeRepository) *UrgeService {
	return &UrgeService{urgeRepository: urgeRepository}
}

// LogUrge appends one urge event. The habit reference is only checked for
// existence via the foreign key, not for visibility to the acting user;
// habit ids act as public identifiers here.
func (s *UrgeService) LogUrge(userID, outcome, habitID string, trigger, notes *string) (*model.Urge, error) {
	if !model.ValidOutcome(outcome) {
		return nil, ErrInvalidOutcome
	}
	if habitID == "" {
		return nil, ErrHabitRequired
	}

	urge := &model.Urge{
		ID:        uuid.New().String(),
		UserID:    userID,
		HabitID:   habitID,
		Outcome:   outcome,
		Trigger:   trigger,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}

	err := s.urgeRepository.Create(urge)
	if err != nil {
		return nil, fmt.Errorf("failed to log urge: %w", err)
	}

	slog.Info("urge logged", "user_id", userID, "habit_id", habitID, "outcome", outcome)
	return urge, nil
}

// ListUrges returns a page of the user's urge events, newest first.
// Limit is clamped to [1,100], offset to >= 0.
func (s *UrgeService) ListUrges(userID string, limit, offset int) (*PaginatedUrges, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	total, err := s.urgeRepository.CountByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count urges: %w", err)
	}

	urges, err := s.urgeRepository.ByUser(userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve urges: %w", err)
	}
	if urges == nil {
		urges = []*model.Urge{}
	}

	return &PaginatedUrges{
		Urges:  urges,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// Stats returns the user's per-outcome totals with zero-filled buckets.
func (s *UrgeService) Stats(userID string) (*UrgeStats, error) {
	counts, err := s.urgeRepository.CountByOutcome(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve urge statistics: %w", err)
	}

	stats := &UrgeStats{}
	for _, c := range counts {
		switch c.Outcome {
		case model.OutcomeResisted:
			stats.TotalResisted = c.Count
		case model.OutcomeGaveIn:
			stats.TotalGaveIn = c.Count
		case model.OutcomeDelayed:
			stats.TotalDelayed = c.Count
		}
	}
	stats.TotalUrges = stats.TotalResisted + stats.TotalGaveIn + stats.TotalDelayed

	return stats, nil
}

// StatsByHabit reshapes the (habit, outcome) aggregate into one record per
// habit, sorted by total urges descending. Ties keep their first-seen
// order from the grouped result.
func (s *UrgeService) StatsByHabit(userID string) ([]HabitStats, error) {
	counts, err := s.urgeRepository.CountByHabitAndOutcome(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve urge statistics by habit: %w", err)
	}

	byHabit := make(map[string]*HabitStats)
	order := []string{}

	for _, c := range counts {
		stats, ok := byHabit[c.HabitID]
		if !ok {
			stats = &HabitStats{HabitID: c.HabitID, HabitName: c.HabitName}
			byHabit[c.HabitID] = stats
			order = append(order, c.HabitID)
		}

		switch c.Outcome {
		case model.OutcomeResisted:
			stats.TotalResisted += c.Count
		case model.OutcomeGaveIn:
			stats.TotalGaveIn += c.Count
		case model.OutcomeDelayed:
			stats.TotalDelayed += c.Count
		}
	}

	result := make([]HabitStats, 0, len(order))
	for _, id := range order {
		stats := byHabit[id]
		stats.TotalUrges = stats.TotalResisted + stats.TotalGaveIn + stats.TotalDelayed
		result = append(result, *stats)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalUrges > result[j].TotalUrges
	})

	return result, nil
}

// TimeSeries returns time-bucketed counts per habit. Two mutually
// exclusive modes: a specific calendar date always buckets that day's
// events by hour; otherwise events from now minus days are bucketed at
// the requested granularity.
func (s *UrgeService) TimeSeries(userID, bucket string, days int, date string) ([]TimeSeriesPoint, error) {
	var rows []repository.TimeSeriesRow
	var err error

	if date != "" {
		rows, err = s.urgeRepository.TimeSeriesForDate(userID, date)
	} else {
		if bucket != repository.BucketHour && bucket != repository.BucketDay {
			return nil, ErrInvalidBucket
		}
		if days < 1 {
			days = 30
		}
		rows, err = s.urgeRepository.TimeSeries(userID, bucket, days)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve time-series data: %w", err)
	}

	result := make([]TimeSeriesPoint, 0, len(rows))
	for _, row := range rows {
		result = append(result, TimeSeriesPoint{
			Bucket:    row.Bucket,
			HabitName: row.HabitName,
			Count:     row.Count,
		})
	}

	return result, nil
}
