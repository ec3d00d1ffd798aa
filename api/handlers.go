package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"weather-dashboard/autocomplete"
	"weather-dashboard/dashboard"
	"weather-dashboard/geo"
	"weather-dashboard/models"
	"weather-dashboard/units"
)

// SessionHeader identifies the autocomplete session of a client
const SessionHeader = "X-Session-ID"

// ErrorResponse is the body of every 4xx and 5xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, status int, errorMsg, details string) {
	sendJSON(w, status, ErrorResponse{Error: errorMsg, Message: details})
}

// sendSnapshot writes the result of a lookup. Lookup failures are part of
// the snapshot, so they still answer 200.
func (s *Server) sendSnapshot(w http.ResponseWriter, snap *dashboard.Snapshot, err error) {
	switch {
	case errors.Is(err, dashboard.ErrEmptyCity):
		sendError(w, http.StatusBadRequest, "invalid_city", "City name must not be empty")
	case errors.Is(err, dashboard.ErrStale):
		// A newer lookup won; report what is on screen now
		sendJSON(w, http.StatusOK, s.session.Snapshot())
	default:
		sendJSON(w, http.StatusOK, snap)
	}
}

// handleLookupCity handles GET /weather?city=
func (s *Server) handleLookupCity(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Lookup(r.Context(), r.URL.Query().Get("city"))
	s.sendSnapshot(w, snap, err)
}

// handleLookupCoords handles GET /weather/coords?lat=&lon=
func (s *Server) handleLookupCoords(w http.ResponseWriter, r *http.Request) {
	coords, ok := parseCoords(w, r)
	if !ok {
		return
	}
	snap, err := s.session.LookupCoords(r.Context(), coords)
	s.sendSnapshot(w, snap, err)
}

// handleLookupHere handles GET /weather/here with the position the browser reported
func (s *Server) handleLookupHere(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.LookupHere(r.Context(), geo.FromRequest(r))
	s.sendSnapshot(w, snap, err)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Refresh(r.Context())
	s.sendSnapshot(w, snap, err)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Retry(r.Context())
	s.sendSnapshot(w, snap, err)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, s.session.Snapshot())
}

// handlePlaces handles GET /places?q=&limit= with per-session debouncing
func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		limit = 0
	}

	places, err := s.suggester.SuggestN(r.Context(), sessionID(r), query, limit)
	switch {
	case errors.Is(err, autocomplete.ErrSuperseded):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		s.logger.Warn("Place search failed", "query", query, "error", err)
		sendError(w, http.StatusBadGateway, "upstream_error", "Could not search places")
		return
	}

	if limit > 0 && limit < len(places) {
		places = places[:limit]
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{
		"query":  query,
		"places": places,
		"count":  len(places),
	})
}

type unitRequest struct {
	Unit string `json:"unit"`
}

func (s *Server) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	unit := s.session.Unit()
	sendJSON(w, http.StatusOK, map[string]string{
		"unit":   string(unit),
		"symbol": unit.Symbol(),
	})
}

// handleSetUnit handles PUT /preferences/unit with {"unit": "fahrenheit"}
func (s *Server) handleSetUnit(w http.ResponseWriter, r *http.Request) {
	var req unitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid_body", "Expected a JSON body with a unit field")
		return
	}
	unit, err := units.ParseUnit(req.Unit)
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid_unit", err.Error())
		return
	}

	sendJSON(w, http.StatusOK, s.session.SetUnit(unit))
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	searches := s.session.Preferences().RecentSearches()
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"searches": searches,
		"count":    len(searches),
	})
}

func (s *Server) handleClearRecent(w http.ResponseWriter, r *http.Request) {
	s.session.Preferences().ClearRecentSearches()
	w.WriteHeader(http.StatusNoContent)
}

// handleHealthCheck provides a simple health check endpoint
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	sendJSON(w, code, map[string]interface{}{
		"status":    status,
		"checks":    checks,
		"state":     s.session.Snapshot().State,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// parseCoords reads lat and lon, answering 400 itself when they are invalid
func parseCoords(w http.ResponseWriter, r *http.Request) (models.Coordinates, bool) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		sendError(w, http.StatusBadRequest, "invalid_coordinates", "lat and lon must be numbers")
		return models.Coordinates{}, false
	}

	coords := models.Coordinates{Lat: lat, Lon: lon}
	if !coords.Valid() {
		sendError(w, http.StatusBadRequest, "invalid_coordinates", "lat must be within ±90 and lon within ±180")
		return models.Coordinates{}, false
	}
	return coords, true
}

// sessionID identifies the client for autocomplete debouncing
func sessionID(r *http.Request) string {
	if id := r.Header.Get(SessionHeader); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
