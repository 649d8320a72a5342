package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pivotapp/pivot/internal/model"
)

const (
	BucketHour = "hour"
	BucketDay  = "day"
)

// OutcomeCount is one row of a per-outcome aggregate.
type OutcomeCount struct {
	Outcome string `db:"outcome"`
	Count   int    `db:"count"`
}

// HabitOutcomeCount is one row of a per-habit, per-outcome aggregate.
type HabitOutcomeCount struct {
	HabitID   string `db:"habit_id"`
	HabitName string `db:"habit_name"`
	Outcome   string `db:"outcome"`
	Count     int    `db:"count"`
}

// TimeSeriesRow is one (bucket, habit) count. Bucket is an RFC 3339 UTC
// timestamp rendered by the database so both drivers return the same shape.
type TimeSeriesRow struct {
	Bucket    string `db:"bucket"`
	HabitName string `db:"habit_name"`
	Count     int    `db:"count"`
}

type UrgeRepository interface {
	Create(urge *model.Urge) error
	ByUser(userID string, limit, offset int) ([]*model.Urge, error)
	CountByUser(userID string) (int, error)
	CountByOutcome(userID string) ([]OutcomeCount, error)
	CountByHabitAndOutcome(userID string) ([]HabitOutcomeCount, error)
	TimeSeries(userID, bucket string, days int) ([]TimeSeriesRow, error)
	TimeSeriesForDate(userID, date string) ([]TimeSeriesRow, error)
}

type urgeRepository struct {
	db     *sqlx.DB
	driver string
}

func NewUrgeRepository(db *sqlx.DB, driver string) UrgeRepository {
	return &urgeRepository{db: db, driver: driver}
}

func (r *urgeRepository) Create(urge *model.Urge) error {
	query := `INSERT INTO urges (id, user_id, habit_id, outcome, "trigger", notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		urge.ID,
		urge.UserID,
		urge.HabitID,
		urge.Outcome,
		urge.Trigger,
		urge.Notes,
		urge.CreatedAt,
	)

	return err
}

func (r *urgeRepository) ByUser(userID string, limit, offset int) ([]*model.Urge, error) {
	var urges []*model.Urge

	query := `SELECT * FROM urges WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	err := r.db.Select(&urges, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return urges, nil
}

func (r *urgeRepository) CountByUser(userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM urges WHERE user_id = $1`
	err := r.db.QueryRow(query, userID).Scan(&count)
	return count, err
}

func (r *urgeRepository) CountByOutcome(userID string) ([]OutcomeCount, error) {
	var counts []OutcomeCount

	query := `SELECT outcome, COUNT(*) AS count FROM urges WHERE user_id = $1 GROUP BY outcome`

	err := r.db.Select(&counts, query, userID)
	if err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *urgeRepository) CountByHabitAndOutcome(userID string) ([]HabitOutcomeCount, error) {
	var counts []HabitOutcomeCount

	query := `SELECT h.id AS habit_id, h.name AS habit_name, u.outcome, COUNT(*) AS count
	          FROM urges u
	          JOIN habits h ON h.id = u.habit_id
	          WHERE u.user_id = $1
	          GROUP BY h.id, h.name, u.outcome`

	err := r.db.Select(&counts, query, userID)
	if err != nil {
		return nil, err
	}

	return counts, nil
}

// bucketExpr returns the SQL expression truncating the urge timestamp to the given
// granularity and rendering it as an RFC 3339 UTC string. The granularity
// keyword is interpolated from this fixed allow-list only; user-supplied
// values (day window, date) stay bound parameters.
func (r *urgeRepository) bucketExpr(bucket string) (string, error) {
	switch r.driver {
	case "pgx":
		switch bucket {
		case BucketHour, BucketDay:
			return fmt.Sprintf(`to_char(date_trunc('%s', u.created_at) AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')`, bucket), nil
		}
	case "sqlite":
		switch bucket {
		case BucketHour:
			return `strftime('%Y-%m-%dT%H:00:00Z', u.created_at)`, nil
		case BucketDay:
			return `strftime('%Y-%m-%dT00:00:00Z', u.created_at)`, nil
		}
	default:
		return "", fmt.Errorf("unsupported driver: %s", r.driver)
	}
	return "", fmt.Errorf("invalid bucket: %s", bucket)
}

func (r *urgeRepository) TimeSeries(userID, bucket string, days int) ([]TimeSeriesRow, error) {
	expr, err := r.bucketExpr(bucket)
	if err != nil {
		return nil, err
	}

	var window string
	if r.driver == "pgx" {
		window = `u.created_at >= now() - make_interval(days => $2)`
	} else {
		window = `datetime(u.created_at) >= datetime('now', '-' || $2 || ' days')`
	}

	query := `SELECT ` + expr + ` AS bucket, h.name AS habit_name, COUNT(*) AS count
	          FROM urges u
	          JOIN habits h ON h.id = u.habit_id
	          WHERE u.user_id = $1 AND ` + window + `
	          GROUP BY bucket, h.name
	          ORDER BY bucket ASC`

	var rows []TimeSeriesRow
	err = r.db.Select(&rows, query, userID, days)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *urgeRepository) TimeSeriesForDate(userID, date string) ([]TimeSeriesRow, error) {
	// A specific calendar date always buckets by hour.
	expr, err := r.bucketExpr(BucketHour)
	if err != nil {
		return nil, err
	}

	var dayFilter string
	if r.driver == "pgx" {
		dayFilter = `u.created_at::date = $2::date`
	} else {
		dayFilter = `date(u.created_at) = $2`
	}

	query := `SELECT ` + expr + ` AS bucket, h.name AS habit_name, COUNT(*) AS count
	          FROM urges u
	          JOIN habits h ON h.id = u.habit_id
	          WHERE u.user_id = $1 AND ` + dayFilter + `
	          GROUP BY bucket, h.name
	          ORDER BY bucket ASC`

	var rows []TimeSeriesRow
	err = r.db.Select(&rows, query, userID, date)
	if err != nil {
		return nil, err
	}

	return rows, nil
}
