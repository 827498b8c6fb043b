package interviewValidator

import (
	"strings"

	"finquest/middleware"
	"finquest/utils"

	"github.com/gofiber/fiber/v2"
)

const maxAudioBytes = 25 << 20

type AnalyzeInterviewRequest struct {
	JobTitle       string   `json:"jobTitle" validate:"required,max=200"`
	Questions      []string `json:"questions" validate:"required,min=1,max=30,dive,required"`
	Transcriptions []string `json:"transcriptions" validate:"max=30"`
}

type AnalyzeVisualsRequest struct {
	FrameDataURL string `json:"frameDataUrl" validate:"required"`
}

// AnalyzeInterview validates a mock interview evaluation request
func AnalyzeInterview() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AnalyzeInterviewRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.JobTitle = strings.TrimSpace(reqData.JobTitle)
		for i := range reqData.Questions {
			reqData.Questions[i] = strings.TrimSpace(reqData.Questions[i])
		}

		if err := utils.Validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, utils.ValidationErrors(err))
		}
		if len(reqData.Transcriptions) > len(reqData.Questions) {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"transcriptions": "There are more transcriptions than questions!",
			})
		}

		c.Locals("validatedInterview", reqData)
		return c.Next()
	}
}

// AnalyzeVisuals validates a webcam frame evaluation request
func AnalyzeVisuals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AnalyzeVisualsRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.FrameDataURL = strings.TrimSpace(reqData.FrameDataURL)

		if err := utils.Validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, utils.ValidationErrors(err))
		}

		c.Locals("validatedVisuals", reqData)
		return c.Next()
	}
}

// Transcribe checks that a non-empty audio file was uploaded
func Transcribe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		file, err := c.FormFile("audio")
		if err != nil || file == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"audio": "Audio file is required!"})
		}
		if file.Size == 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{"audio": "Audio file is empty!"})
		}
		if file.Size > maxAudioBytes {
			return middleware.ValidationErrorResponse(c, map[string]string{"audio": "Audio file is too large!"})
		}

		c.Locals("audioFile", file)
		return c.Next()
	}
}
