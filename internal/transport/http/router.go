package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/mzhuravlev/fittrack/internal/handlers"
	authmw "github.com/mzhuravlev/fittrack/internal/middleware/auth"
	"github.com/mzhuravlev/fittrack/internal/token"
)

type Deps struct {
	Tokens          *token.Service
	AuthHandler     *handlers.AuthHandler
	PlanHandler     *handlers.PlanHandler
	WorkoutHandler  *handlers.WorkoutHandler
	ExerciseHandler *handlers.ExerciseHandler
	CommentHandler  *handlers.CommentHandler
	RatingHandler   *handlers.RatingHandler
	SearchHandler   *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	requireAuth := authmw.RequireAuth(d.Tokens)
	optionalAuth := authmw.OptionalAuth(d.Tokens)

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/refresh", d.AuthHandler.Refresh)
	v1.POST("/logout", d.AuthHandler.Logout, requireAuth)
	v1.GET("/me", d.AuthHandler.Me, requireAuth)

	v1.GET("/search", d.SearchHandler.Handler)

	plans := v1.Group("/plans")
	plans.GET("", d.PlanHandler.ListPlans, optionalAuth)
	plans.GET("/:id", d.PlanHandler.GetPlan, optionalAuth)
	plans.POST("", d.PlanHandler.CreatePlan, requireAuth)
	plans.PATCH("/:id", d.PlanHandler.PatchPlan, requireAuth)
	plans.DELETE("/:id", d.PlanHandler.DeletePlan, requireAuth)

	plans.GET("/:id/comments", d.CommentHandler.ListComments, optionalAuth)
	plans.POST("/:id/comments", d.CommentHandler.CreateComment, requireAuth)
	plans.GET("/:id/ratings", d.RatingHandler.ListRatings, optionalAuth)
	plans.PUT("/:id/rating", d.RatingHandler.RatePlan, requireAuth)
	plans.DELETE("/:id/rating", d.RatingHandler.DeleteRating, requireAuth)

	comments := v1.Group("/comments", requireAuth)
	comments.PATCH("/:id", d.CommentHandler.PatchComment)
	comments.DELETE("/:id", d.CommentHandler.DeleteComment)

	workouts := v1.Group("/workouts")
	workouts.GET("/:id", d.WorkoutHandler.GetWorkout, optionalAuth)
	workouts.GET("", d.WorkoutHandler.ListWorkouts, requireAuth)
	workouts.POST("", d.WorkoutHandler.CreateWorkout, requireAuth)
	workouts.PATCH("/:id", d.WorkoutHandler.PatchWorkout, requireAuth)
	workouts.DELETE("/:id", d.WorkoutHandler.DeleteWorkout, requireAuth)
	workouts.POST("/:id/exercises", d.WorkoutHandler.AddExercise, requireAuth)
	workouts.DELETE("/:id/exercises/:entryID", d.WorkoutHandler.RemoveExercise, requireAuth)

	exercises := v1.Group("/exercises")
	exercises.GET("", d.ExerciseHandler.ListExercises)
	exercises.GET("/:id", d.ExerciseHandler.GetExercise)

	admin := v1.Group("/admin", requireAuth, authmw.RequireAdmin)
	admin.POST("/exercises", d.ExerciseHandler.CreateExercise)
	admin.PATCH("/exercises/:id", d.ExerciseHandler.PatchExercise)
	admin.DELETE("/exercises/:id", d.ExerciseHandler.DeleteExercise)
}
