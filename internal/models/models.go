package models

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	DisplayName  string `gorm:"not null"                 json:"display_name"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

// Session holds the single live refresh token of a user. A new login or a
// refresh overwrites the row, logout clears it.
type Session struct {
	ID               uint      `gorm:"primaryKey"           json:"id"`
	Username         string    `gorm:"uniqueIndex;not null" json:"username"`
	RefreshTokenHash string    `gorm:"index;not null"       json:"-"`
	ExpiresAt        time.Time `gorm:"not null"             json:"expires_at"`
}

type TrainingPlan struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerUsername string    `gorm:"index;not null"           json:"owner"`
	Title         string    `gorm:"not null"                 json:"title"`
	Description   string    `json:"description"`
	Public        bool      `gorm:"default:false"            json:"public"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Workout struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerUsername string    `gorm:"index;not null"           json:"owner"`
	PlanID        *uint     `gorm:"index"                    json:"plan_id,omitempty"`
	Title         string    `gorm:"not null"                 json:"title"`
	Notes         string    `json:"notes"`
	Public        bool      `gorm:"default:false"            json:"public"`
	PerformedAt   time.Time `json:"performed_at"`
	DurationMin   uint      `json:"duration_min"`
}

// Exercise is the global catalog, managed by admins, readable by everyone.
type Exercise struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"unique;not null"          json:"name"`
	MuscleGroup string `gorm:"index"                    json:"muscle_group"`
	Description string `json:"description"`
}

type WorkoutExercise struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkoutID  uint    `gorm:"index;not null"           json:"workout_id"`
	ExerciseID uint    `gorm:"index;not null"           json:"exercise_id"`
	Sets       uint    `gorm:"default:1"                json:"sets"`
	Reps       uint    `json:"reps"`
	WeightKG   float64 `json:"weight_kg"`
}

type Comment struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerUsername string    `gorm:"index;not null"           json:"owner"`
	PlanID        uint      `gorm:"index;not null"           json:"plan_id"`
	Body          string    `gorm:"not null"                 json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}

type Rating struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"                    json:"id"`
	OwnerUsername string `gorm:"index:idx_rating_owner_plan,unique;not null" json:"owner"`
	PlanID        uint   `gorm:"index:idx_rating_owner_plan,unique;not null" json:"plan_id"`
	Value         uint   `gorm:"not null;check:value >= 1 AND value <= 5"    json:"value"`
}
