package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/lexibatch/internal/logging"
	"github.com/example/lexibatch/internal/scheduling"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{scheduling.ErrInvalidRating, http.StatusBadRequest, "InvalidRating"},
	{scheduling.ErrInvalidBatchSize, http.StatusBadRequest, "InvalidBatchSize"},
	{scheduling.ErrInvalidInput, http.StatusBadRequest, "InvalidInput"},
	{scheduling.ErrUnauthorized, http.StatusForbidden, "AuthorizationError"},
	{scheduling.ErrDatabaseNotFound, http.StatusNotFound, "DatabaseNotFound"},
	{scheduling.ErrCardNotFound, http.StatusNotFound, "CardNotFound"},
	{scheduling.ErrBatchNotFound, http.StatusNotFound, "BatchNotFound"},
	{scheduling.ErrWordSenseNotFound, http.StatusNotFound, "WordSenseNotFound"},
	{scheduling.ErrSessionNotFound, http.StatusNotFound, "SessionNotFound"},
	{scheduling.ErrNoBatchReady, http.StatusConflict, "NoBatchReady"},
	{scheduling.ErrAllBatchesCompleted, http.StatusConflict, "AllBatchesCompleted"},
	{scheduling.ErrConcurrentModification, http.StatusConflict, "ConcurrentModification"},
	{scheduling.ErrSessionFinished, http.StatusConflict, "SessionFinished"},
	{scheduling.ErrInvalidTransition, http.StatusConflict, "InvalidTransition"},
}

func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	var se *scheduling.StorageError
	if errors.As(err, &se) {
		return http.StatusInternalServerError, "StorageError"
	}
	return http.StatusInternalServerError, "InternalError"
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", logging.Args(
			logging.String("path", c.FullPath()),
			logging.UserID(currentUser(c)),
			logging.Error(err),
		)...)
		c.JSON(status, gin.H{"error": "internal server error", "code": code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "InvalidInput"})
}
