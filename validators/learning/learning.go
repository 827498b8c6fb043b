package learningValidator

import (
	"strings"

	"finquest/middleware"
	"finquest/utils"

	"github.com/gofiber/fiber/v2"
)

type QuizRequest struct {
	Answers map[string]string `json:"answers" validate:"required,min=1,dive,keys,required,endkeys,required"`
}

// SubmitQuiz validates a quiz submission
func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(QuizRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		for q, a := range reqData.Answers {
			reqData.Answers[q] = strings.TrimSpace(a)
		}

		if err := utils.Validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, utils.ValidationErrors(err))
		}

		c.Locals("validatedQuiz", reqData)
		return c.Next()
	}
}

// LessonParams checks the module and lesson path parameters
func LessonParams() fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := make(map[string]string)
		if strings.TrimSpace(c.Params("moduleId")) == "" {
			errors["moduleId"] = "Module ID is required!"
		}
		if strings.TrimSpace(c.Params("lessonSlug")) == "" {
			errors["lessonSlug"] = "Lesson slug is required!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		return c.Next()
	}
}
