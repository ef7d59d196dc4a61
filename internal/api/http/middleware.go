package http

import (
	"errors"
	nethttp "net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/property-service/internal/observability"
	apperrors "github.com/spec-kit/property-service/pkg/util"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewErrorHandler maps errors to the JSON envelope and records them.
func NewErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			metrics.RecordError(c.Path(), c.Method(), "HTTP_"+strconv.Itoa(fiberErr.Code))
			return c.Status(fiberErr.Code).JSON(errorResponse{
				Code:    apperrors.CodeInternalError,
				Message: fiberErr.Message,
			})
		}

		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= nethttp.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("path", c.Path()),
				zap.String("code", domainErr.Code),
				zap.Error(err))
		}
		metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
		return c.Status(domainErr.HTTPStatus).JSON(errorResponse{
			Code:    domainErr.Code,
			Message: domainErr.Message,
			Details: domainErr.Details,
		})
	}
}
