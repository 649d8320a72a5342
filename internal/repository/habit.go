package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/pivotapp/pivot/internal/model"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
)

type HabitRepository interface {
	// FindOrCreate returns the habit matching (type, name, owner scope),
	// inserting it first if absent. Idempotent even under concurrent calls.
	FindOrCreate(habit *model.Habit) (*model.Habit, error)
	ByID(habitID string) (*model.Habit, error)
	VisibleToUser(userID string) ([]*model.Habit, error)
}

type habitRepository struct {
	db *sqlx.DB
}

func NewHabitRepository(db *sqlx.DB) HabitRepository {
	return &habitRepository{db: db}
}

// byScopeAndName matches standard habits by name among unowned rows and
// custom habits by name among rows owned by the habit's user.
func (r *habitRepository) byScopeAndName(habit *model.Habit) (*model.Habit, error) {
	found := &model.Habit{}

	var err error
	if habit.UserID == nil {
		query := `SELECT * FROM habits WHERE name = $1 AND type = $2 AND user_id IS NULL`
		err = r.db.Get(found, query, habit.Name, habit.Type)
	} else {
		query := `SELECT * FROM habits WHERE name = $1 AND type = $2 AND user_id = $3`
		err = r.db.Get(found, query, habit.Name, habit.Type, *habit.UserID)
	}

	if err == sql.ErrNoRows {
		return nil, ErrHabitNotFound
	}

	return found, err
}

func (r *habitRepository) FindOrCreate(habit *model.Habit) (*model.Habit, error) {
	existing, err := r.byScopeAndName(habit)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrHabitNotFound) {
		return nil, err
	}

	query := `INSERT INTO habits (id, name, type, user_id, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.Exec(query, habit.ID, habit.Name, habit.Type, habit.UserID, habit.CreatedAt)
	if err != nil {
		// A concurrent identical call won the insert. The unique index on
		// (type, name, owner scope) turns the race into a re-fetch.
		if isUniqueViolation(err) {
			return r.byScopeAndName(habit)
		}
		return nil, err
	}

	return habit, nil
}

func (r *habitRepository) ByID(habitID string) (*model.Habit, error) {
	habit := &model.Habit{}
	query := `SELECT * FROM habits WHERE id = $1`

	err := r.db.Get(habit, query, habitID)
	if err == sql.ErrNoRows {
		return nil, ErrHabitNotFound
	}

	return habit, err
}

func (r *habitRepository) VisibleToUser(userID string) ([]*model.Habit, error) {
	var habits []*model.Habit

	query := `SELECT * FROM habits
	          WHERE (type = $1 AND user_id IS NULL) OR (type = $2 AND user_id = $3)
	          ORDER BY type ASC, name ASC`

	err := r.db.Select(&habits, query, model.HabitTypeStandard, model.HabitTypeCustom, userID)
	if err != nil {
		return nil, err
	}

	return habits, nil
}
