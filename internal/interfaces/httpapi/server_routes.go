package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

// Scoring writes are triggered by schedulers and operators, never end users.
func registerInternalScoringRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	internal := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, RequireInternalJobToken(internalJobToken, fn))
	}

	internal("POST /v1/internal/games/results", handler.ApplyGameResult)
	internal("POST /v1/internal/games/results/batch", handler.ApplyGameResults)
	internal("POST /v1/internal/games/{externalID}/score", handler.UpdateGameScore)
	internal("POST /v1/internal/scoring/recalculate", handler.RecalculateAll)
	internal("POST /v1/internal/seasons/{seasonID}/recalculate", handler.RecalculateSeason)
	internal("GET /v1/internal/seasons/{seasonID}/weeks/resolve", handler.ResolveWeek)
}
