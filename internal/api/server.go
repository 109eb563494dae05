// Package api provides the HTTP API for observing and steering a contest.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/talgya/drone-harvest/internal/agents"
	"github.com/talgya/drone-harvest/internal/engine"
	"github.com/talgya/drone-harvest/internal/persistence"
	"github.com/talgya/drone-harvest/internal/world"
)

// maxLedgerEvents caps one ledger-backed events query before filtering.
const maxLedgerEvents = 5000

// Admin commands allowed per client per window.
const (
	adminRate   = 30
	adminWindow = time.Minute
)

// Server serves the contest state over HTTP.
type Server struct {
	Coord    *engine.Coordinator
	Eng      *engine.Engine
	DB       *persistence.DB // Optional run ledger
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	adminLimiter := NewRateLimiter(adminRate, adminWindow)
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return RateLimitMiddleware(adminLimiter, s.adminOnly(h))
	}

	router := mux.NewRouter()
	v1 := router.PathPrefix("/api/v1").Subrouter()

	// Public endpoints.
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/drones", s.handleDrones).Methods(http.MethodGet)
	v1.HandleFunc("/drones/{id:[0-9]+}", s.handleDrone).Methods(http.MethodGet)
	v1.HandleFunc("/resources", s.handleResources).Methods(http.MethodGet)
	v1.HandleFunc("/arena", s.handleArena).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	v1.HandleFunc("/tallies", s.handleTallies).Methods(http.MethodGet)
	v1.HandleFunc("/speed", s.handleSpeed).Methods(http.MethodGet)

	// Admin endpoints.
	v1.HandleFunc("/start", admin(s.handleStart)).Methods(http.MethodPost)
	v1.HandleFunc("/paths", admin(s.handlePaths)).Methods(http.MethodPost)
	v1.HandleFunc("/speed", admin(s.handleSpeed)).Methods(http.MethodPost)

	return corsMiddleware(router)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no HARVEST_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Coord.Snapshot()
	status := map[string]any{
		"name":      "drone-harvest",
		"tick":      snap.Tick,
		"sim_time":  engine.SimTime(snap.Tick, s.Coord.Config().TimeStep),
		"elapsed":   snap.Elapsed,
		"started":   snap.Started,
		"speed":     s.Eng.Speed(),
		"running":   s.Eng.Running(),
		"delivered": snap.Delivered,
		"collected": snap.Collected,
		"available": snap.Available,
		"busy":      snap.Busy,
		"drones":    len(snap.Drones),
		"resources": len(snap.Resources),
	}
	writeJSON(w, status)
}

func (s *Server) handleDrones(w http.ResponseWriter, r *http.Request) {
	drones := s.Coord.Snapshot().Drones

	// Optional team filter.
	if name := r.URL.Query().Get("team"); name != "" {
		team, err := world.ParseTeam(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filtered := make([]engine.DroneView, 0, len(drones))
		for _, d := range drones {
			if d.Team == team {
				filtered = append(filtered, d)
			}
		}
		drones = filtered
	}
	writeJSON(w, drones)
}

func (s *Server) handleDrone(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid drone id", http.StatusBadRequest)
		return
	}
	for _, d := range s.Coord.Snapshot().Drones {
		if d.ID == agents.DroneID(id) {
			writeJSON(w, d)
			return
		}
	}
	http.Error(w, "drone not found", http.StatusNotFound)
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	resources := s.Coord.Snapshot().Resources
	if resources == nil {
		resources = []engine.ResourceView{}
	}
	writeJSON(w, resources)
}

func (s *Server) handleArena(w http.ResponseWriter, r *http.Request) {
	snap := s.Coord.Snapshot()
	writeJSON(w, map[string]any{
		"radius":    s.Coord.Config().ArenaRadius,
		"bases":     snap.Bases,
		"obstacles": snap.Obstacles,
	})
}

// handleEvents serves the in-memory history, or the run ledger's with
// ?source=ledger.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 500)

	var events []engine.Event
	switch r.URL.Query().Get("source") {
	case "", "memory":
		events = s.Coord.RecentEvents(0)
	case "ledger":
		if s.DB == nil {
			http.Error(w, "run ledger disabled", http.StatusNotFound)
			return
		}
		stored, err := s.DB.RecentEvents(maxLedgerEvents)
		if err != nil {
			slog.Error("ledger event query failed", "error", err)
			http.Error(w, "ledger query failed", http.StatusInternalServerError)
			return
		}
		// The ledger returns newest first; the API serves oldest first.
		for i := len(stored) - 1; i >= 0; i-- {
			events = append(events, stored[i])
		}
	default:
		http.Error(w, "source must be memory or ledger", http.StatusBadRequest)
		return
	}

	// Optional category filter.
	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	out := events[start:]
	if out == nil {
		out = []engine.Event{}
	}
	writeJSON(w, out)
}

// handleTallies returns the score history recorded in the run ledger.
func (s *Server) handleTallies(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "run ledger disabled", http.StatusNotFound)
		return
	}
	tallies, err := s.DB.Tallies()
	if err != nil {
		slog.Error("tally query failed", "error", err)
		http.Error(w, "ledger query failed", http.StatusInternalServerError)
		return
	}
	if tallies == nil {
		tallies = []persistence.Tally{}
	}
	run, err := s.DB.GetRun(s.DB.RunID())
	if err != nil {
		slog.Error("run query failed", "error", err)
		http.Error(w, "ledger query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"run": map[string]any{
			"id":          run.ID,
			"label":       run.Label,
			"seed":        run.Seed,
			"started_at":  run.StartedAt,
			"finished_at": run.FinishedAt.String,
		},
		"tallies": tallies,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.Coord.Start(); err != nil {
		if errors.Is(err, engine.ErrAlreadyStarted) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("simulation started via API")
	writeJSON(w, map[string]bool{"started": true})
}

func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		http.Error(w, `expected {"enabled": bool}`, http.StatusBadRequest)
		return
	}
	s.Coord.SetDrawPaths(*req.Enabled)
	slog.Info("path display changed", "enabled", *req.Enabled)
	writeJSON(w, map[string]bool{"enabled": *req.Enabled})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

// queryLimit parses ?limit=, falling back to def outside 1..ceiling.
func queryLimit(r *http.Request, def, ceiling int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= ceiling {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Error("encode response", "error", err)
	}
}
