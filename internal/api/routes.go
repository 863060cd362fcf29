package api

import (
	"net/http"

	"openlift/tracking-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	trackerService service.TrackerService,
	templateService service.TemplateService,
	scheduleService service.ScheduleService,
) {
	authHandler := NewAuthHandler(authService)
	sessionHandler := NewSessionHandler(trackerService)
	templateHandler := NewTemplateHandler(templateService)
	scheduleHandler := NewScheduleHandler(scheduleService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex()})
		})
		protected.PUT("/me/units", authHandler.UpdateUnits)

		// --- Session Lifecycle ---
		sessionGroup := protected.Group("/sessions")
		{
			sessionGroup.POST("", sessionHandler.StartSession)
			sessionGroup.GET("", sessionHandler.ListSessions)
			sessionGroup.GET("/:id", sessionHandler.GetSession)
			sessionGroup.DELETE("/:id", sessionHandler.DeleteSession)
			sessionGroup.POST("/:id/end", sessionHandler.EndSession)

			// --- Active Tracking ---
			sessionGroup.POST("/:id/resume", sessionHandler.ResumeSession)
			sessionGroup.POST("/:id/save", sessionHandler.SaveAndExit)
			sessionGroup.POST("/:id/discard", sessionHandler.DiscardAndExit)
			sessionGroup.POST("/:id/finish", sessionHandler.FinishWorkout)
			sessionGroup.POST("/:id/timer/toggle", sessionHandler.ToggleTimer)
			sessionGroup.PUT("/:id/notes", sessionHandler.UpdateSessionNotes)

			sessionGroup.POST("/:id/exercises", sessionHandler.AddExercise)
			sessionGroup.DELETE("/:id/exercises/:exerciseId", sessionHandler.DeleteExercise)
			sessionGroup.PUT("/:id/exercises/:exerciseId/notes", sessionHandler.UpdateExerciseNotes)

			sessionGroup.POST("/:id/exercises/:exerciseId/sets", sessionHandler.AddSet)
			sessionGroup.PUT("/:id/exercises/:exerciseId/sets/:setId", sessionHandler.UpdateSet)
			sessionGroup.DELETE("/:id/exercises/:exerciseId/sets/:setId", sessionHandler.DeleteSet)

			// --- After-the-fact Correction ---
			sessionGroup.POST("/:id/edit", sessionHandler.BeginEdit)
			sessionGroup.POST("/:id/edit/save", sessionHandler.SaveEdit)
			sessionGroup.POST("/:id/edit/discard", sessionHandler.DiscardEdit)
			sessionGroup.PUT("/:id/edit/notes", sessionHandler.UpdateEditedNotes)
			sessionGroup.POST("/:id/edit/exercises/:exerciseId/sets", sessionHandler.AddEditedSet)
			sessionGroup.PUT("/:id/edit/exercises/:exerciseId/sets/:setId", sessionHandler.UpdateEditedSet)
			sessionGroup.DELETE("/:id/edit/exercises/:exerciseId/sets/:setId", sessionHandler.DeleteEditedSet)
		}

		// --- Exercise Library & Workout Plans ---
		exerciseTemplateGroup := protected.Group("/exercise-templates")
		{
			exerciseTemplateGroup.POST("", templateHandler.CreateExerciseTemplate)
			exerciseTemplateGroup.GET("", templateHandler.ListExerciseTemplates)
			exerciseTemplateGroup.GET("/:id", templateHandler.GetExerciseTemplate)
			exerciseTemplateGroup.PUT("/:id", templateHandler.UpdateExerciseTemplate)
			exerciseTemplateGroup.DELETE("/:id", templateHandler.DeleteExerciseTemplate)

			// Per-template extras hang off the library routes.
			exerciseTemplateGroup.GET("/:id/history", sessionHandler.ExerciseHistory)
			exerciseTemplateGroup.GET("/:id/units", sessionHandler.GetUnitPreference)
			exerciseTemplateGroup.PUT("/:id/units", sessionHandler.SetUnitPreference)
		}

		workoutTemplateGroup := protected.Group("/workout-templates")
		{
			workoutTemplateGroup.POST("", templateHandler.CreateWorkoutTemplate)
			workoutTemplateGroup.GET("", templateHandler.ListWorkoutTemplates)
			workoutTemplateGroup.GET("/:id", templateHandler.GetWorkoutTemplate)
			workoutTemplateGroup.PUT("/:id", templateHandler.UpdateWorkoutTemplate)
			workoutTemplateGroup.DELETE("/:id", templateHandler.DeleteWorkoutTemplate)
		}

		// --- Calendar ---
		scheduleGroup := protected.Group("/schedule")
		{
			scheduleGroup.POST("", scheduleHandler.ScheduleWorkout)
			scheduleGroup.GET("", scheduleHandler.ListSchedule)
			scheduleGroup.DELETE("/:id", scheduleHandler.DeleteScheduledWorkout)
		}
	}
}
