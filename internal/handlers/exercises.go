package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mzhuravlev/fittrack/internal/models"
	"github.com/mzhuravlev/fittrack/internal/util"
)

// ExerciseHandler manages the global exercise catalog. Reads are public,
// writes go through the admin group.
type ExerciseHandler struct {
	DB *gorm.DB
}

func (h *ExerciseHandler) GetExercise(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var exercise models.Exercise
	if err := h.DB.First(&exercise, id).Error; err != nil {
		return guardErr(err)
	}

	return c.JSON(http.StatusOK, exercise)
}

func (h *ExerciseHandler) ListExercises(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Exercise{})
	if group := c.QueryParam("muscle_group"); group != "" {
		q = q.Where("muscle_group = ?", group)
	}

	var items []models.Exercise
	if err := q.Order("name ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, items)
}

func (h *ExerciseHandler) CreateExercise(c echo.Context) error {
	var req struct {
		Name        string `json:"name"`
		MuscleGroup string `json:"muscle_group"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	exercise := models.Exercise{
		Name:        req.Name,
		MuscleGroup: req.MuscleGroup,
		Description: req.Description,
	}
	if err := h.DB.Create(&exercise).Error; err != nil {
		return echo.NewHTTPError(http.StatusConflict, "exercise already exists")
	}

	return c.JSON(http.StatusCreated, exercise)
}

func (h *ExerciseHandler) PatchExercise(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var exercise models.Exercise
	if err := h.DB.First(&exercise, id).Error; err != nil {
		return guardErr(err)
	}

	var req struct {
		Name        *string `json:"name"`
		MuscleGroup *string `json:"muscle_group"`
		Description *string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Name != nil {
		exercise.Name = *req.Name
	}
	if req.MuscleGroup != nil {
		exercise.MuscleGroup = *req.MuscleGroup
	}
	if req.Description != nil {
		exercise.Description = *req.Description
	}

	if err := h.DB.Save(&exercise).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, exercise)
}

func (h *ExerciseHandler) DeleteExercise(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.DB.Delete(&models.Exercise{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.NoContent(http.StatusNoContent)
}
