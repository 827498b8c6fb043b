package interviewRoutes

import (
	interviewController "finquest/controllers/interview"
	"finquest/services"
	interviewValidator "finquest/validators/interview"

	"github.com/gofiber/fiber/v2"
)

func SetupInterviewRoutes(router fiber.Router, interviews *services.InterviewService) {
	router.Post("/analyze-interview", interviewValidator.AnalyzeInterview(), interviewController.AnalyzeInterview(interviews))
	router.Post("/analyze-visuals", interviewValidator.AnalyzeVisuals(), interviewController.AnalyzeVisuals(interviews))
	router.Post("/transcribe", interviewValidator.Transcribe(), interviewController.Transcribe(interviews))
}
