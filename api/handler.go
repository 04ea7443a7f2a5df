package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/viktsys/b3history/database"
	"github.com/viktsys/b3history/ingest"
	"github.com/viktsys/b3history/models"
)

type Handler struct {
	store database.Store
	now   func() time.Time
}

func NewHandler(store database.Store) *Handler {
	return &Handler{store: store, now: time.Now}
}

// Root is the liveness text endpoint
func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Servidor Go + %s rodando!", h.store.Driver())
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"driver": h.store.Driver(),
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"driver":     h.store.Driver(),
		"checked_at": h.now().UTC(),
	})
}

// CreateHistory recebe um array de registros e faz upsert de todos em uma transação
func (h *Handler) CreateHistory(c *gin.Context) {
	raws, err := ingest.DecodeBatch(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, err)
			return
		}
		respondError(c, http.StatusBadRequest, err)
		return
	}

	rows := ingest.ToStockHistories(raws, h.now())

	count, err := h.store.UpsertBatch(c.Request.Context(), rows)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	log.Debug().Int64("count", count).Msg("Stock history upserted")
	c.JSON(http.StatusOK, models.MessageResponse{
		Message: "Dados inseridos com sucesso!",
		Count:   count,
	})
}

func (h *Handler) GetHistory(c *gin.Context) {
	ticker := strings.ToUpper(c.Param("ticker"))

	history, err := h.store.QueryByTicker(c.Request.Context(), ticker)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *Handler) DeleteHistory(c *gin.Context) {
	ticker := strings.ToUpper(c.Param("ticker"))

	changes, err := h.store.DeleteByTicker(c.Request.Context(), ticker)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, models.ChangesResponse{
		Message: fmt.Sprintf("Histórico de %s deletado!", ticker),
		Changes: changes,
	})
}

func (h *Handler) DeleteAllHistory(c *gin.Context) {
	changes, err := h.store.DeleteAll(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, models.ChangesResponse{
		Message: "Todos os históricos deletados!",
		Changes: changes,
	})
}

func (h *Handler) ListTickers(c *gin.Context) {
	tickers, err := h.store.ListTickers(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, tickers)
}

func respondError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, models.ErrorResponse{Error: err.Error()})
}
