package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/lexibatch/internal/logging"
	"github.com/example/lexibatch/internal/scheduling"
	"github.com/example/lexibatch/pkg/models"
)

type SchedulerHandler struct {
	svc              *scheduling.Service
	defaultBatchSize int
	logger           *slog.Logger
}

func NewSchedulerHandler(svc *scheduling.Service, defaultBatchSize int, logger *slog.Logger) *SchedulerHandler {
	if defaultBatchSize <= 0 {
		defaultBatchSize = 25
	}
	return &SchedulerHandler{svc: svc, defaultBatchSize: defaultBatchSize, logger: logging.NewComponentLogger(logger, "api")}
}

type ReviewRequest struct {
	CardID  int64 `json:"cardId" binding:"required"`
	Quality *int  `json:"quality" binding:"required"`
}

type DeckReviewRequest struct {
	CardID int64 `json:"cardId" binding:"required"`
	Rating *int  `json:"rating" binding:"required"`
}

type CreateBatchesRequest struct {
	DatabaseID         int64 `json:"databaseId" binding:"required"`
	BatchSize          *int  `json:"batchSize"`
	FirstInstancesOnly bool  `json:"firstInstancesOnly"`
	ExcludeKnown       bool  `json:"excludeKnown"`
}

type DatabaseRequest struct {
	DatabaseID int64 `json:"databaseId" binding:"required"`
}

type MarkKnownRequest struct {
	WordSenseIDs []int64 `json:"wordSenseIds" binding:"required"`
}

type NotificationSettingsRequest struct {
	Enabled        *bool `json:"enabled" binding:"required"`
	Hour           int   `json:"hour"`
	TelegramChatID int64 `json:"telegramChatId"`
}

func reviewResponse(res models.ReviewResult) gin.H {
	return gin.H{
		"cardId":      res.Card.CardID,
		"interval":    res.Card.IntervalDays,
		"repetitions": res.Card.Repetitions,
		"easeFactor":  res.Card.EaseFactor,
		"dueAt":       res.Card.DueAt,
		"state":       res.Card.State,
		"passed":      res.Passed,
		"learnedNow":  res.LearnedNow,
		"batchNumber": res.BatchNumber,
	}
}

func queryInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || v <= 0 {
		badRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return v, true
}

func paramInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func (h *SchedulerHandler) Review(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cardId and quality are required")
		return
	}
	res, err := h.svc.Review(c.Request.Context(), currentUser(c), req.CardID, *req.Quality)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	RecordReview("five_point", res.Passed)
	c.JSON(http.StatusOK, reviewResponse(res))
}

func (h *SchedulerHandler) ReviewDeck(c *gin.Context) {
	var req DeckReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cardId and rating are required")
		return
	}
	res, err := h.svc.ReviewDeck(c.Request.Context(), currentUser(c), req.CardID, *req.Rating)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	RecordReview("four_point", res.Passed)
	c.JSON(http.StatusOK, reviewResponse(res))
}

func (h *SchedulerHandler) CreateBatches(c *gin.Context) {
	var req CreateBatchesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "databaseId is required")
		return
	}
	size := h.defaultBatchSize
	if req.BatchSize != nil {
		size = *req.BatchSize
	}
	batches, err := h.svc.CreateBatches(c.Request.Context(), currentUser(c), req.DatabaseID, size, models.BatchOptions{
		FirstInstancesOnly: req.FirstInstancesOnly,
		ExcludeKnown:       req.ExcludeKnown,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"batches": batches})
}

func (h *SchedulerHandler) ActivateNext(c *gin.Context) {
	var req DatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "databaseId is required")
		return
	}
	b, err := h.svc.ActivateNext(c.Request.Context(), currentUser(c), req.DatabaseID)
	if err != nil {
		switch {
		case errors.Is(err, scheduling.ErrNoBatchReady):
			RecordActivation("not_ready")
		case errors.Is(err, scheduling.ErrAllBatchesCompleted):
			RecordActivation("all_completed")
		default:
			RecordActivation("error")
		}
		respondError(c, h.logger, err)
		return
	}
	RecordActivation("activated")
	c.JSON(http.StatusOK, gin.H{"batch": b})
}

func (h *SchedulerHandler) BatchStats(c *gin.Context) {
	dbID, ok := queryInt64(c, "databaseId")
	if !ok {
		return
	}
	stats, err := h.svc.GetStats(c.Request.Context(), currentUser(c), dbID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *SchedulerHandler) BatchCards(c *gin.Context) {
	dbID, ok := queryInt64(c, "databaseId")
	if !ok {
		return
	}
	number, ok := queryInt64(c, "batchNumber")
	if !ok {
		return
	}
	cards, err := h.svc.GetBatchCards(c.Request.Context(), currentUser(c), dbID, int(number))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

func (h *SchedulerHandler) ListBatches(c *gin.Context) {
	dbID, ok := queryInt64(c, "databaseId")
	if !ok {
		return
	}
	batches, err := h.svc.ListBatches(c.Request.Context(), currentUser(c), dbID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

func (h *SchedulerHandler) ListDatabases(c *gin.Context) {
	dbs, err := h.svc.ListDatabases(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"databases": dbs})
}

func (h *SchedulerHandler) DeleteBatches(c *gin.Context) {
	dbID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteBatches(c.Request.Context(), currentUser(c), dbID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SchedulerHandler) DeleteDatabase(c *gin.Context) {
	dbID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteDatabase(c.Request.Context(), currentUser(c), dbID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SchedulerHandler) MarkKnown(c *gin.Context) {
	dbID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req MarkKnownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "wordSenseIds is required")
		return
	}
	n, err := h.svc.MarkKnown(c.Request.Context(), currentUser(c), dbID, req.WordSenseIDs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}

func (h *SchedulerHandler) Deck(c *gin.Context) {
	dbID, ok := queryInt64(c, "databaseId")
	if !ok {
		return
	}
	deck, err := h.svc.GetDeck(c.Request.Context(), currentUser(c), dbID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, deck)
}

func (h *SchedulerHandler) GetNotificationSettings(c *gin.Context) {
	settings, err := h.svc.GetNotificationSettings(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SchedulerHandler) UpdateNotificationSettings(c *gin.Context) {
	var req NotificationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "enabled is required")
		return
	}
	settings, err := h.svc.UpdateNotificationSettings(c.Request.Context(), currentUser(c), *req.Enabled, req.Hour, req.TelegramChatID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
