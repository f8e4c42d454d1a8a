package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/platform/logging"
	"github.com/daklaw/nba-pickem-backend/internal/usecase"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	gameResults   *usecase.GameResultService
	recalculation *usecase.RecalculationService
	weekResolver  *usecase.WeekResolver
	health        HealthChecker
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(
	gameResults *usecase.GameResultService,
	recalculation *usecase.RecalculationService,
	weekResolver *usecase.WeekResolver,
	health HealthChecker,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		gameResults:   gameResults,
		recalculation: recalculation,
		weekResolver:  weekResolver,
		health:        health,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", usecase.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	if h.health != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.health.Ping(pingCtx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "error", err)
			writeError(ctx, w, fmt.Errorf("%w: store ping failed", usecase.ErrDependencyUnavailable))
			return
		}
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ApplyGameResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplyGameResult")
	defer span.End()

	var req gameResultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	item, err := req.toDomain()
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.gameResults.ApplyGameResult(ctx, item)
	if err != nil {
		h.logger.WarnContext(ctx, "apply game result failed", "external_id", item.ExternalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) ApplyGameResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplyGameResults")
	defer span.End()

	var req gameResultBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	games := make([]game.Game, 0, len(req.Games))
	for _, item := range req.Games {
		g, err := item.toDomain()
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		games = append(games, g)
	}

	result, err := h.gameResults.ApplyGameResults(ctx, games)
	if err != nil {
		h.logger.ErrorContext(ctx, "apply game results batch failed", "games", len(games), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) UpdateGameScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateGameScore")
	defer span.End()

	externalID := r.PathValue("externalID")
	var req gameScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.gameResults.UpdateGameScore(ctx, externalID, *req.HomeScore, *req.AwayScore)
	if err != nil {
		h.logger.WarnContext(ctx, "update game score failed", "external_id", externalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RecalculateAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecalculateAll")
	defer span.End()

	result, err := h.recalculation.RecalculateAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "recalculate points failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RecalculateSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecalculateSeason")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	result, err := h.recalculation.RecalculateSeason(ctx, seasonID)
	if err != nil {
		h.logger.ErrorContext(ctx, "retabulate season failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) ResolveWeek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveWeek")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	rawDate := strings.TrimSpace(r.URL.Query().Get("date"))
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", usecase.ErrInvalidInput, rawDate))
		return
	}

	item, err := h.weekResolver.ResolveWeek(ctx, seasonID, date)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve week failed", "season_id", seasonID, "date", rawDate, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, item.Summary())
}
