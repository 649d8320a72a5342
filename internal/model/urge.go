package model

import (
	"time"
)

const (
	OutcomeResisted = "resisted"
	OutcomeGaveIn   = "gave_in"
	OutcomeDelayed  = "delayed"
)

// Urge is one logged occurrence of a user being tempted by a habit.
// Rows are append-only: no exposed operation mutates or deletes them.
type Urge struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	HabitID   string    `db:"habit_id" json:"habitId"`
	Outcome   string    `db:"outcome" json:"outcome"`
	Trigger   *string   `db:"trigger" json:"trigger,omitempty"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func ValidOutcome(o string) bool {
	switch o {
	case OutcomeResisted, OutcomeGaveIn, OutcomeDelayed:
		return true
	}
	return false
}
