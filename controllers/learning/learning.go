package learningController

import (
	"finquest/catalog"
	"finquest/middleware"
	"finquest/services"
	learningValidator "finquest/validators/learning"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups the learning endpoints around their services.
type Handlers struct {
	Profiles *services.ProfileService
	Progress *services.ProgressService
	Tracker  *services.TrackerService
	Badges   *services.BadgeService
}

// GetMe returns the caller's profile with level progress
func (h *Handlers) GetMe(c *fiber.Ctx) error {
	profile, err := h.Profiles.GetProfile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched!", profile)
}

// ResetMe wipes learning progress. The wallet is left alone.
func (h *Handlers) ResetMe(c *fiber.Ctx) error {
	if err := h.Profiles.ResetAccount(c.UserContext(), middleware.UserID(c)); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress reset!", nil)
}

func (h *Handlers) ListCourses(c *fiber.Ctx) error {
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched!", catalog.Courses())
}

func (h *Handlers) GetCourseProgress(c *fiber.Ctx) error {
	progress, err := h.Progress.GetCourseProgress(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course progress fetched!", progress)
}

// GetModule returns every lesson of a module with its lock and completion state
func (h *Handlers) GetModule(c *fiber.Ctx) error {
	state, err := h.Tracker.ModuleState(c.UserContext(), middleware.UserID(c), c.Params("moduleId"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module fetched!", state)
}

func (h *Handlers) CompleteLesson(c *fiber.Ctx) error {
	result, err := h.Tracker.CompleteLesson(c.UserContext(), middleware.UserID(c), c.Params("moduleId"), c.Params("lessonSlug"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	msg := "Lesson completed!"
	if !result.FirstCompletion {
		msg = "Lesson already completed!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, msg, result)
}

// SubmitQuiz grades the answers against the lesson's key
func (h *Handlers) SubmitQuiz(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedQuiz").(*learningValidator.QuizRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	outcome, err := h.Tracker.SubmitLessonQuiz(c.UserContext(), middleware.UserID(c), c.Params("moduleId"), c.Params("lessonSlug"), reqData.Answers)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	msg := "Quiz passed!"
	if !outcome.Passed {
		msg = "Quiz not passed, try again!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, msg, outcome)
}

func (h *Handlers) ResetQuiz(c *fiber.Ctx) error {
	if err := h.Tracker.ResetQuiz(c.UserContext(), middleware.UserID(c), c.Params("moduleId"), c.Params("lessonSlug")); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz reset!", nil)
}

func (h *Handlers) ListBadges(c *fiber.Ctx) error {
	badges, err := h.Badges.ListBadges(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Badges fetched!", badges)
}

// ForceComplete marks a lesson done for any user, skipping lock and quiz checks
func (h *Handlers) ForceComplete(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if _, err := h.Profiles.EnsureProfile(c.UserContext(), userID, ""); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	result, err := h.Tracker.ForceCompleteLesson(c.UserContext(), userID, c.Params("moduleId"), c.Params("lessonSlug"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson completed!", result)
}
