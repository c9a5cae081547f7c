package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dhruvc/stylefeed/internal/repository"
	"github.com/dhruvc/stylefeed/internal/service"
)

// writeError maps domain errors onto HTTP responses. Validation failures
// carry every reason so the client can show the full list; everything
// unrecognized collapses to a 500 with a generic message in prod — the
// detail only leaks in dev mode.
func writeError(c echo.Context, err error, dev bool) error {
	if ve, ok := service.IsValidation(err); ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "reasons": ve.Reasons})
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, repository.ErrUsernameExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
	case errors.Is(err, repository.ErrDuplicateSubmission):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already submitted to this contest"})
	case errors.Is(err, repository.ErrDuplicateVote):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already voted for this submission"})
	case errors.Is(err, repository.ErrVoteLimit):
		return c.JSON(http.StatusConflict, echo.Map{"error": "vote limit reached"})
	case errors.Is(err, repository.ErrImmutable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "field cannot be changed"})
	case errors.Is(err, repository.ErrInsufficientCoins):
		return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient coins"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": service.ErrInvalidCredentials.Error()})
	case errors.Is(err, service.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	case errors.Is(err, service.ErrAccountHasPassword):
		return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrAccountHasPassword.Error()})
	case errors.Is(err, service.ErrProviderMismatch):
		return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrProviderMismatch.Error()})
	case errors.Is(err, service.ErrUnknownProvider):
		return c.JSON(http.StatusNotFound, echo.Map{"error": service.ErrUnknownProvider.Error()})
	case errors.Is(err, service.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrInvalidState.Error()})
	}
	if dev {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "detail": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
