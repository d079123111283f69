package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mzhuravlev/fittrack/internal/authz"
	authmw "github.com/mzhuravlev/fittrack/internal/middleware/auth"
	"github.com/mzhuravlev/fittrack/internal/models"
	"github.com/mzhuravlev/fittrack/internal/mykafka"
	"github.com/mzhuravlev/fittrack/internal/service/search"
	"github.com/mzhuravlev/fittrack/internal/util"
)

type PlanHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	ESIndex  string
}

// syncIndex keeps the search index in line with plan visibility: public
// plans are indexed, private ones removed. Failures are logged only.
func (h *PlanHandler) syncIndex(c echo.Context, plan models.TrainingPlan) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var err error
	if plan.Public {
		err = search.IndexPlan(ctx, h.ES, h.ESIndex, plan)
	} else {
		err = search.DeletePlan(ctx, h.ES, h.ESIndex, plan.ID)
	}
	if err != nil {
		c.Logger().Errorf("ES sync error: %v", err)
	}
}

func (h *PlanHandler) dropFromIndex(c echo.Context, planID uint) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.DeletePlan(ctx, h.ES, h.ESIndex, planID); err != nil {
		c.Logger().Errorf("ES sync error: %v", err)
	}
}

func (h *PlanHandler) CreatePlan(c echo.Context) error {
	actor := authmw.Actor(c)

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Public      bool   `json:"public"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	plan := models.TrainingPlan{
		OwnerUsername: actor.Username,
		Title:         req.Title,
		Description:   req.Description,
		Public:        req.Public,
	}
	if err := h.DB.Create(&plan).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.syncIndex(c, plan)
	publish(c, h.Producer, "plan_events", actor.Username, map[string]any{
		"type":   "plan_created",
		"planID": plan.ID,
		"owner":  plan.OwnerUsername,
	})

	return c.JSON(http.StatusCreated, plan)
}

func (h *PlanHandler) GetPlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var plan models.TrainingPlan
	if err := h.DB.First(&plan, id).Error; err != nil {
		return guardErr(err)
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, plan.OwnerUsername, plan.Public, authz.OpRead); err != nil {
		return guardErr(err)
	}

	var avg sql.NullFloat64
	if err := h.DB.Model(&models.Rating{}).Where("plan_id = ?", plan.ID).
		Select("AVG(value)").Scan(&avg).Error; err != nil {
		c.Logger().Errorf("rating average error: %v", err)
	}

	resp := echo.Map{"plan": plan}
	if avg.Valid {
		resp["rating"] = avg.Float64
	}
	return c.JSON(http.StatusOK, resp)
}

// ListPlans returns public plans plus the caller's own.
func (h *PlanHandler) ListPlans(c echo.Context) error {
	actor := authmw.Actor(c)
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.TrainingPlan{})
	switch {
	case actor.Role == authz.RoleAdmin:
		// admins see everything
	case actor.Username != "":
		q = q.Where("public = ? OR owner_username = ?", true, actor.Username)
	default:
		q = q.Where("public = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var items []models.TrainingPlan
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *PlanHandler) PatchPlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var plan models.TrainingPlan
	if err := h.DB.First(&plan, id).Error; err != nil {
		return guardErr(err)
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, plan.OwnerUsername, plan.Public, authz.OpModify); err != nil {
		return guardErr(err)
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Public      *bool   `json:"public"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Title != nil {
		plan.Title = *req.Title
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Public != nil {
		plan.Public = *req.Public
	}

	if err := h.DB.Save(&plan).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.syncIndex(c, plan)
	publish(c, h.Producer, "plan_events", actor.Username, map[string]any{
		"type":   "plan_updated",
		"planID": plan.ID,
		"owner":  plan.OwnerUsername,
	})

	return c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) DeletePlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var plan models.TrainingPlan
	if err := h.DB.First(&plan, id).Error; err != nil {
		return guardErr(err)
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, plan.OwnerUsername, plan.Public, authz.OpDelete); err != nil {
		return guardErr(err)
	}

	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", plan.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", plan.ID).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		return tx.Delete(&plan).Error
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.dropFromIndex(c, plan.ID)
	publish(c, h.Producer, "plan_events", actor.Username, map[string]any{
		"type":   "plan_deleted",
		"planID": plan.ID,
		"owner":  plan.OwnerUsername,
	})

	return c.NoContent(http.StatusNoContent)
}
