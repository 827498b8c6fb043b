package walletValidator

import (
	"strings"

	"finquest/middleware"
	"finquest/utils"

	"github.com/gofiber/fiber/v2"
)

// TransactionRequest is the body of POST /wallet/transactions.
type TransactionRequest struct {
	Type        string                 `json:"type" validate:"required,oneof=credit debit"`
	Category    string                 `json:"category" validate:"omitempty,max=50"`
	Amount      int64                  `json:"amount" validate:"gt=0"`
	Label       string                 `json:"label" validate:"required,max=255"`
	Metadata    map[string]interface{} `json:"metadata"`
	ReferenceID *string                `json:"referenceId" validate:"omitempty,max=100"`
}

// AdminTransactionRequest applies a transaction on behalf of another user.
type AdminTransactionRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
	TransactionRequest
}

type ListQuery struct {
	Page     int    `query:"page"`
	Limit    int    `query:"limit"`
	Category string `query:"category" validate:"omitempty,max=50"`
	Type     string `query:"type" validate:"omitempty,oneof=credit debit"`
}

func normalize(r *TransactionRequest) {
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	r.Label = strings.TrimSpace(r.Label)
}

// CreateTransaction validates a user credit or debit request
func CreateTransaction() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(TransactionRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		normalize(reqData)

		if err := utils.Validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, utils.ValidationErrors(err))
		}

		c.Locals("validatedTransaction", reqData)
		return c.Next()
	}
}

// AdminTransaction validates an admin credit or debit request
func AdminTransaction() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AdminTransactionRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		normalize(&reqData.TransactionRequest)
		reqData.UserID = strings.TrimSpace(reqData.UserID)

		if err := utils.Validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, utils.ValidationErrors(err))
		}

		c.Locals("validatedAdminTransaction", reqData)
		return c.Next()
	}
}

// ListTransactions validates the history query string
func ListTransactions() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		reqData.Type = strings.ToLower(strings.TrimSpace(reqData.Type))

		if err := utils.Validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, utils.ValidationErrors(err))
		}

		c.Locals("validatedListQuery", reqData)
		return c.Next()
	}
}
