package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/lexibatch/internal/logging"
	"github.com/example/lexibatch/internal/scheduling"
)

type SessionHandler struct {
	svc    *scheduling.Service
	logger *slog.Logger
}

func NewSessionHandler(svc *scheduling.Service, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, logger: logging.NewComponentLogger(logger, "api")}
}

type StartSessionRequest struct {
	DatabaseID  int64 `json:"databaseId" binding:"required"`
	BatchNumber int   `json:"batchNumber"`
	Deck        bool  `json:"deck"`
}

type AnswerRequest struct {
	Quality *int `json:"quality" binding:"required"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "databaseId is required")
		return
	}
	if !req.Deck && req.BatchNumber <= 0 {
		badRequest(c, "batchNumber is required unless deck is true")
		return
	}
	view, err := h.svc.StartSession(c.Request.Context(), currentUser(c), req.DatabaseID, req.BatchNumber, req.Deck)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *SessionHandler) Get(c *gin.Context) {
	view, err := h.svc.CurrentCard(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SessionHandler) Reveal(c *gin.Context) {
	view, err := h.svc.RevealAnswer(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SessionHandler) Answer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "quality is required")
		return
	}
	res, view, err := h.svc.AnswerCard(c.Request.Context(), currentUser(c), c.Param("id"), *req.Quality)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	RecordReview(view.Scale, res.Passed)
	c.JSON(http.StatusOK, gin.H{"review": reviewResponse(res), "session": view})
}
