package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ensured/skate-deck-sub000/internal/domain"
	"github.com/ensured/skate-deck-sub000/internal/identity"
	"github.com/ensured/skate-deck-sub000/internal/service"
	"github.com/ensured/skate-deck-sub000/internal/websocket"
)

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides HTTP handlers for the game API
type Handler struct {
	service *service.GameService
	hub     *websocket.Hub
	deps    map[string]Pinger
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *service.GameService, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		deps:    make(map[string]Pinger),
		logger:  logger,
	}
}

// AddReadinessCheck registers a dependency for /ready
func (h *Handler) AddReadinessCheck(name string, p Pinger) {
	h.deps[name] = p
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)
	r.Use(identity.Middleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/game", func(r chi.Router) {
			r.Get("/", h.GetGame)
			r.Post("/new", h.NewGame)
			r.Post("/reset", h.ResetPlayers)
			r.Post("/start", h.StartGame)
			r.Post("/result", h.SubmitResult)
			r.Get("/deck", h.GetDeckStatus)
			r.Post("/deck/peek", h.PeekDeck)
		})

		r.Route("/players", func(r chi.Router) {
			r.Post("/", h.AddPlayer)
			r.Route("/{playerID}", func(r chi.Router) {
				r.Put("/", h.RenamePlayer)
				r.Delete("/", h.RemovePlayer)
				r.Post("/powerups", h.ActivatePowerUp)
			})
		})

		r.Post("/intents", h.ApplyIntent)
		r.Get("/tricks", h.ListTricks)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.ListHistory)
			r.Get("/players/{name}", h.GetPlayerStats)
			r.Get("/games/{gameID}/events", h.GetGameEvents)
		})

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID, X-User-ID, X-User-Name")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps a rejected operation to a status code
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err)
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case domain.IsStateError(err):
		h.writeError(w, http.StatusConflict, err)
	default:
		h.logger.Error("operation failed", "op", op, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// decode reads a JSON request body
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrInvalidRequest
	}
	return nil
}

func playerIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "playerID"))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidRequest
	}
	return id, nil
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck reports whether every registered dependency answers
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ready"}
	ready := true
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.logger.Warn("dependency not ready", "dependency", name, "error", err)
			status[name] = "unavailable"
			ready = false
			continue
		}
		status[name] = "ok"
	}
	if !ready {
		status["status"] = "degraded"
		h.writeJSON(w, http.StatusServiceUnavailable, APIResponse{Success: false, Data: status})
		return
	}
	h.writeSuccess(w, status)
}

// GetGame returns the full game state and deck status
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.service.View())
}

// NewGame clears the game, seating a signed-in caller as creator
func (h *Handler) NewGame(w http.ResponseWriter, r *http.Request) {
	h.service.NewGame(r.Context())
	h.writeSuccess(w, h.service.View())
}

// ResetPlayers keeps the roster and returns to the lobby
func (h *Handler) ResetPlayers(w http.ResponseWriter, r *http.Request) {
	h.service.ResetPlayers(r.Context())
	h.writeSuccess(w, h.service.View())
}

// StartGame starts the game
func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	if err := h.service.StartGame(r.Context()); err != nil {
		h.writeServiceError(w, "start_game", err)
		return
	}
	h.writeSuccess(w, h.service.View())
}

// SubmitResultRequest is the body of a trick result submission
type SubmitResultRequest struct {
	Result domain.TrickResult `json:"result"`
}

// SubmitResult resolves the current player's attempt
func (h *Handler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	var req SubmitResultRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.service.SubmitResult(r.Context(), req.Result); err != nil {
		h.writeServiceError(w, "submit_result", err)
		return
	}
	h.writeSuccess(w, h.service.View())
}

// GetDeckStatus returns remaining and total cards
func (h *Handler) GetDeckStatus(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.service.View().Deck)
}

// PeekDeck sets aside and returns the top cards, 3 by default
func (h *Handler) PeekDeck(w http.ResponseWriter, r *http.Request) {
	n := 3
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
			return
		}
		n = v
	}
	h.writeSuccess(w, h.service.PeekDeck(r.Context(), n))
}

// PlayerRequest is the body of add and rename requests
type PlayerRequest struct {
	Name string `json:"name"`
}

// AddPlayer adds a player to the lobby
func (h *Handler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.service.AddPlayer(r.Context(), req.Name)
	if err != nil {
		h.writeServiceError(w, "add_player", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    p,
	})
}

// RenamePlayer renames a player in the lobby
func (h *Handler) RenamePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	var req PlayerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.service.RenamePlayer(r.Context(), id, req.Name); err != nil {
		h.writeServiceError(w, "rename_player", err)
		return
	}
	h.writeSuccess(w, h.service.View())
}

// RemovePlayer removes a player from the lobby
func (h *Handler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.service.RemovePlayer(r.Context(), id); err != nil {
		h.writeServiceError(w, "remove_player", err)
		return
	}
	h.writeSuccess(w, h.service.View())
}

// PowerUpRequest is the body of a power-up activation
type PowerUpRequest struct {
	Type    domain.PowerUpType `json:"type"`
	TrickID *int               `json:"trick_id,omitempty"`
}

// ActivatePowerUp uses one of a player's power-ups
func (h *Handler) ActivatePowerUp(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	var req PowerUpRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.service.ActivatePowerUp(r.Context(), id, req.Type, req.TrickID); err != nil {
		h.writeServiceError(w, "activate_power_up", err)
		return
	}
	h.writeSuccess(w, h.service.View())
}

// ApplyIntent applies a forwarded player intent
func (h *Handler) ApplyIntent(w http.ResponseWriter, r *http.Request) {
	var in domain.Intent
	if err := decode(r, &in); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.service.ApplyIntent(r.Context(), in); err != nil {
		h.writeServiceError(w, string(in.Type), err)
		return
	}
	h.writeSuccess(w, h.service.View())
}

// ListTricks returns the trick catalog
func (h *Handler) ListTricks(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.service.Catalog())
}

// ListHistory returns finished games, newest first
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	results, err := h.service.History(r.Context(), limit, offset)
	if err != nil {
		h.writeServiceError(w, "list_history", err)
		return
	}
	h.writeSuccess(w, results)
}

// GetPlayerStats returns finished-game totals for a player name
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	stats, err := h.service.PlayerStats(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.writeServiceError(w, "player_stats", err)
		return
	}
	h.writeSuccess(w, stats)
}

// GetGameEvents returns the event log of a finished game
func (h *Handler) GetGameEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.GameEvents(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		h.writeServiceError(w, "game_events", err)
		return
	}
	h.writeSuccess(w, events)
}
