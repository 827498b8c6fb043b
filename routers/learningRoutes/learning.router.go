package learningRoutes

import (
	learningController "finquest/controllers/learning"
	learningValidator "finquest/validators/learning"

	"github.com/gofiber/fiber/v2"
)

func SetupLearningRoutes(router fiber.Router, h *learningController.Handlers) {
	router.Get("/me", h.GetMe)
	router.Post("/me/reset", h.ResetMe)

	router.Get("/courses", h.ListCourses)
	router.Get("/courses/progress", h.GetCourseProgress)
	router.Get("/badges", h.ListBadges)

	modules := router.Group("/modules/:moduleId")
	modules.Get("/", h.GetModule)

	lessons := modules.Group("/lessons/:lessonSlug", learningValidator.LessonParams())
	lessons.Post("/complete", h.CompleteLesson)
	lessons.Post("/quiz", learningValidator.SubmitQuiz(), h.SubmitQuiz)
	lessons.Delete("/quiz", h.ResetQuiz)
}
