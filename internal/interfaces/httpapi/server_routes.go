package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

// registerEvidenceRoutes expects the portal edge to authenticate callers.
func registerEvidenceRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/demos/inspect", handler.InspectDemo)
	mux.HandleFunc("GET /v1/submissions/{submissionID}/stats", handler.GetSubmissionStats)
	mux.HandleFunc("POST /v1/submissions/{submissionID}/inventory", handler.RefreshSubmissionInventory)
	mux.HandleFunc("GET /v1/players/{steamID}/inventory", handler.GetPlayerInventory)
	mux.HandleFunc("GET /v1/players/{steamID}/bans", handler.GetPlayerBans)
	mux.HandleFunc("GET /v1/steam/resolve", handler.ResolveSteamProfile)
}

func registerWorkerRoutes(mux *http.ServeMux, handler *Handler, workerToken string) {
	mux.Handle("POST /v1/internal/demos/parse", RequireWorkerToken(workerToken, http.HandlerFunc(handler.WorkerParseIdentity)))
	mux.Handle("POST /v1/internal/demos/stats", RequireWorkerToken(workerToken, http.HandlerFunc(handler.WorkerParseStatistics)))
	mux.Handle("POST /v1/internal/inventory/resync", RequireWorkerToken(workerToken, http.HandlerFunc(handler.WorkerResyncInventories)))
}
