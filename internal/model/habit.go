package model

import (
	"time"
)

const (
	HabitTypeStandard = "standard"
	HabitTypeCustom   = "custom"
)

// StandardHabits are the globally shared habit categories seeded at startup.
var StandardHabits = []string{
	"Junk Food",
	"Alcohol",
	"Social Media",
	"Smoking",
	"Procrastination",
	"Gaming",
}

// Habit is a named activity a user tracks urges against. Standard habits
// have no owner and are visible to everyone; custom habits belong to
// exactly one user.
type Habit struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	UserID    *string   `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func ValidHabitType(t string) bool {
	return t == HabitTypeStandard || t == HabitTypeCustom
}
