package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mzhuravlev/fittrack/internal/authz"
	authmw "github.com/mzhuravlev/fittrack/internal/middleware/auth"
	"github.com/mzhuravlev/fittrack/internal/models"
	"github.com/mzhuravlev/fittrack/internal/mykafka"
)

// CommentHandler covers comments on training plans. A comment is visible
// to whoever can read its plan; editing and deleting stay with the
// comment's owner, same guard as every other owned resource.
type CommentHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *CommentHandler) planFor(c echo.Context, planID uint) (*models.TrainingPlan, error) {
	var plan models.TrainingPlan
	if err := h.DB.First(&plan, planID).Error; err != nil {
		return nil, guardErr(err)
	}
	return &plan, nil
}

func (h *CommentHandler) ListComments(c echo.Context) error {
	planID, err := pathID(c)
	if err != nil {
		return err
	}

	plan, err := h.planFor(c, planID)
	if err != nil {
		return err
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, plan.OwnerUsername, plan.Public, authz.OpRead); err != nil {
		return guardErr(err)
	}

	var comments []models.Comment
	if err := h.DB.Where("plan_id = ?", plan.ID).Order("id ASC").Find(&comments).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(c echo.Context) error {
	planID, err := pathID(c)
	if err != nil {
		return err
	}

	plan, err := h.planFor(c, planID)
	if err != nil {
		return err
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, plan.OwnerUsername, plan.Public, authz.OpRead); err != nil {
		return guardErr(err)
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "body is required")
	}

	comment := models.Comment{
		OwnerUsername: actor.Username,
		PlanID:        plan.ID,
		Body:          req.Body,
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "plan_events", actor.Username, map[string]any{
		"type":      "comment_created",
		"planID":    plan.ID,
		"commentID": comment.ID,
		"owner":     comment.OwnerUsername,
	})

	return c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) PatchComment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var comment models.Comment
	if err := h.DB.First(&comment, id).Error; err != nil {
		return guardErr(err)
	}

	plan, err := h.planFor(c, comment.PlanID)
	if err != nil {
		return err
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, comment.OwnerUsername, plan.Public, authz.OpModify); err != nil {
		return guardErr(err)
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "body is required")
	}

	comment.Body = req.Body
	if err := h.DB.Save(&comment).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) DeleteComment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var comment models.Comment
	if err := h.DB.First(&comment, id).Error; err != nil {
		return guardErr(err)
	}

	plan, err := h.planFor(c, comment.PlanID)
	if err != nil {
		return err
	}

	actor := authmw.Actor(c)
	if err := authz.Allow(actor, comment.OwnerUsername, plan.Public, authz.OpDelete); err != nil {
		return guardErr(err)
	}

	if err := h.DB.Delete(&comment).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.NoContent(http.StatusNoContent)
}
