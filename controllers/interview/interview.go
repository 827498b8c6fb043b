package interviewController

import (
	"mime/multipart"

	"finquest/middleware"
	"finquest/services"
	interviewValidator "finquest/validators/interview"

	"github.com/gofiber/fiber/v2"
)

// AnalyzeInterview scores a recorded mock interview
func AnalyzeInterview(interviews *services.InterviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData, ok := c.Locals("validatedInterview").(*interviewValidator.AnalyzeInterviewRequest)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		feedback, err := interviews.AnalyzeInterview(c.UserContext(), services.InterviewInput{
			JobTitle:  reqData.JobTitle,
			Questions: reqData.Questions,
			Answers:   reqData.Transcriptions,
		})
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Interview analyzed!", feedback)
	}
}

// AnalyzeVisuals scores a single webcam frame
func AnalyzeVisuals(interviews *services.InterviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData, ok := c.Locals("validatedVisuals").(*interviewValidator.AnalyzeVisualsRequest)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		feedback, err := interviews.AnalyzeVisuals(c.UserContext(), reqData.FrameDataURL)
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}
		msg := "Visuals analyzed!"
		if !feedback.Available {
			msg = "Visual analysis unavailable"
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, msg, fiber.Map{
			"visualFeedback": feedback,
		})
	}
}

// Transcribe converts the uploaded answer recording to text
func Transcribe(interviews *services.InterviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		file, ok := c.Locals("audioFile").(*multipart.FileHeader)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		audio, err := file.Open()
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Could not read audio file!", nil)
		}
		defer audio.Close()

		text, err := interviews.Transcribe(c.UserContext(), file.Filename, audio)
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Audio transcribed!", fiber.Map{
			"text": text,
		})
	}
}
