package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mzhuravlev/fittrack/internal/authz"
	authmw "github.com/mzhuravlev/fittrack/internal/middleware/auth"
	"github.com/mzhuravlev/fittrack/internal/models"
)

type RatingHandler struct {
	DB *gorm.DB
}

// RatePlan upserts the caller's rating: one rating per user and plan,
// re-rating replaces the old value.
func (h *RatingHandler) RatePlan(c echo.Context) error {
	planID, err := pathID(c)
	if err != nil {
		return err
	}

	var plan models.TrainingPlan
	if err := h.DB.First(&plan, planID).Error; err != nil {
		return guardErr(err)
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, plan.OwnerUsername, plan.Public, authz.OpRead); err != nil {
		return guardErr(err)
	}

	var req struct {
		Value uint `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Value < 1 || req.Value > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "value must be between 1 and 5")
	}

	rating := models.Rating{
		OwnerUsername: actor.Username,
		PlanID:        plan.ID,
		Value:         req.Value,
	}
	if err := h.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_username"}, {Name: "plan_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rating).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, rating)
}

func (h *RatingHandler) ListRatings(c echo.Context) error {
	planID, err := pathID(c)
	if err != nil {
		return err
	}

	var plan models.TrainingPlan
	if err := h.DB.First(&plan, planID).Error; err != nil {
		return guardErr(err)
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, plan.OwnerUsername, plan.Public, authz.OpRead); err != nil {
		return guardErr(err)
	}

	var ratings []models.Rating
	if err := h.DB.Where("plan_id = ?", plan.ID).Find(&ratings).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, ratings)
}

// DeleteRating removes the caller's own rating of the plan. Admins may
// remove anyone's by passing ?owner=.
func (h *RatingHandler) DeleteRating(c echo.Context) error {
	planID, err := pathID(c)
	if err != nil {
		return err
	}

	var plan models.TrainingPlan
	if err := h.DB.First(&plan, planID).Error; err != nil {
		return guardErr(err)
	}

	actor := authmw.Actor(c)
	owner := actor.Username
	if requested := c.QueryParam("owner"); requested != "" && requested != actor.Username {
		if err := authz.Allow(actor, requested, false, authz.OpDelete); err != nil {
			return guardErr(err)
		}
		owner = requested
	}

	if err := h.DB.Where("plan_id = ? AND owner_username = ?", plan.ID, owner).
		Delete(&models.Rating{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.NoContent(http.StatusNoContent)
}
