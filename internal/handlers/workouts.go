package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mzhuravlev/fittrack/internal/authz"
	authmw "github.com/mzhuravlev/fittrack/internal/middleware/auth"
	"github.com/mzhuravlev/fittrack/internal/models"
	"github.com/mzhuravlev/fittrack/internal/mykafka"
	"github.com/mzhuravlev/fittrack/internal/util"
)

type WorkoutHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type workoutRequest struct {
	Title       string     `json:"title"`
	Notes       string     `json:"notes"`
	Public      bool       `json:"public"`
	PlanID      *uint      `json:"plan_id"`
	PerformedAt *time.Time `json:"performed_at"`
	DurationMin uint       `json:"duration_min"`
}

func (h *WorkoutHandler) CreateWorkout(c echo.Context) error {
	actor := authmw.Actor(c)

	var req workoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	if req.PlanID != nil {
		var plan models.TrainingPlan
		if err := h.DB.First(&plan, *req.PlanID).Error; err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown plan")
		}
		if err := authz.Allow(actor, plan.OwnerUsername, plan.Public, authz.OpRead); err != nil {
			return guardErr(err)
		}
	}

	performedAt := time.Now()
	if req.PerformedAt != nil {
		performedAt = *req.PerformedAt
	}

	workout := models.Workout{
		OwnerUsername: actor.Username,
		PlanID:        req.PlanID,
		Title:         req.Title,
		Notes:         req.Notes,
		Public:        req.Public,
		PerformedAt:   performedAt,
		DurationMin:   req.DurationMin,
	}
	if err := h.DB.Create(&workout).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "workout_events", actor.Username, map[string]any{
		"type":      "workout_created",
		"workoutID": workout.ID,
		"owner":     workout.OwnerUsername,
	})

	return c.JSON(http.StatusCreated, workout)
}

func (h *WorkoutHandler) GetWorkout(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var workout models.Workout
	if err := h.DB.First(&workout, id).Error; err != nil {
		return guardErr(err)
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, workout.OwnerUsername, workout.Public, authz.OpRead); err != nil {
		return guardErr(err)
	}

	var entries []models.WorkoutExercise
	if err := h.DB.Where("workout_id = ?", workout.ID).Find(&entries).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"workout":   workout,
		"exercises": entries,
	})
}

// ListWorkouts returns the caller's own workouts.
func (h *WorkoutHandler) ListWorkouts(c echo.Context) error {
	actor := authmw.Actor(c)
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var items []models.Workout
	if err := h.DB.Where("owner_username = ?", actor.Username).
		Order("performed_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, items)
}

func (h *WorkoutHandler) PatchWorkout(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var workout models.Workout
	if err := h.DB.First(&workout, id).Error; err != nil {
		return guardErr(err)
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, workout.OwnerUsername, workout.Public, authz.OpModify); err != nil {
		return guardErr(err)
	}

	var req struct {
		Title       *string    `json:"title"`
		Notes       *string    `json:"notes"`
		Public      *bool      `json:"public"`
		PerformedAt *time.Time `json:"performed_at"`
		DurationMin *uint      `json:"duration_min"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Title != nil {
		workout.Title = *req.Title
	}
	if req.Notes != nil {
		workout.Notes = *req.Notes
	}
	if req.Public != nil {
		workout.Public = *req.Public
	}
	if req.PerformedAt != nil {
		workout.PerformedAt = *req.PerformedAt
	}
	if req.DurationMin != nil {
		workout.DurationMin = *req.DurationMin
	}

	if err := h.DB.Save(&workout).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "workout_events", actor.Username, map[string]any{
		"type":      "workout_updated",
		"workoutID": workout.ID,
		"owner":     workout.OwnerUsername,
	})

	return c.JSON(http.StatusOK, workout)
}

func (h *WorkoutHandler) DeleteWorkout(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var workout models.Workout
	if err := h.DB.First(&workout, id).Error; err != nil {
		return guardErr(err)
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, workout.OwnerUsername, workout.Public, authz.OpDelete); err != nil {
		return guardErr(err)
	}

	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workout_id = ?", workout.ID).Delete(&models.WorkoutExercise{}).Error; err != nil {
			return err
		}
		return tx.Delete(&workout).Error
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "workout_events", actor.Username, map[string]any{
		"type":      "workout_deleted",
		"workoutID": workout.ID,
		"owner":     workout.OwnerUsername,
	})

	return c.NoContent(http.StatusNoContent)
}

// AddExercise attaches a catalog exercise with set/rep data to a workout.
func (h *WorkoutHandler) AddExercise(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var workout models.Workout
	if err := h.DB.First(&workout, id).Error; err != nil {
		return guardErr(err)
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, workout.OwnerUsername, workout.Public, authz.OpModify); err != nil {
		return guardErr(err)
	}

	var req struct {
		ExerciseID uint    `json:"exercise_id"`
		Sets       uint    `json:"sets"`
		Reps       uint    `json:"reps"`
		WeightKG   float64 `json:"weight_kg"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var exercise models.Exercise
	if err := h.DB.First(&exercise, req.ExerciseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown exercise")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if req.Sets < 1 {
		req.Sets = 1
	}

	entry := models.WorkoutExercise{
		WorkoutID:  workout.ID,
		ExerciseID: exercise.ID,
		Sets:       req.Sets,
		Reps:       req.Reps,
		WeightKG:   req.WeightKG,
	}
	if err := h.DB.Create(&entry).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusCreated, entry)
}

func (h *WorkoutHandler) RemoveExercise(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var workout models.Workout
	if err := h.DB.First(&workout, id).Error; err != nil {
		return guardErr(err)
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, workout.OwnerUsername, workout.Public, authz.OpModify); err != nil {
		return guardErr(err)
	}

	entryID := parseIntDefault(c.Param("entryID"), 0)
	if entryID < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Where("id = ? AND workout_id = ?", entryID, workout.ID).
		Delete(&models.WorkoutExercise{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.NoContent(http.StatusNoContent)
}
