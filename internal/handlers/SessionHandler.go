package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"TradeSimulator/internal/models"
	"TradeSimulator/internal/services/trading"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// RunStore is the read side of the run archive.
type RunStore interface {
	FindByID(id string) (*models.Run, error)
	FindRecent(limit int) ([]models.Run, error)
}

// SessionHandler serves the simulator over HTTP.
type SessionHandler struct {
	sessions *trading.SessionManager
	runs     RunStore
	log      zerolog.Logger
}

// NewSessionHandler creates the HTTP handler. runs may be nil when no
// database is configured.
func NewSessionHandler(sessions *trading.SessionManager, runs RunStore, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		runs:     runs,
		log:      log.With().Str("component", "http").Logger(),
	}
}

type createSessionRequest struct {
	Ticker     string `json:"ticker"`
	AssetClass string `json:"asset_class"`
}

type advanceRequest struct {
	Days int `json:"days"`
}

type settleRequest struct {
	ForceEnd bool `json:"force_end"`
}

func (h *SessionHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.sessions.Count(),
	})
}

type tradeModeView struct {
	Mode      models.TradeMode `json:"mode"`
	Label     string           `json:"label"`
	Direction models.Direction `json:"direction"`
	Margin    bool             `json:"margin"`
}

type assetView struct {
	models.AssetClass
	Modes []tradeModeView `json:"modes"`
}

// HandleGetAssets lists each asset class with the trade modes it offers
// under its own labels.
func (h *SessionHandler) HandleGetAssets(w http.ResponseWriter, r *http.Request) {
	assets := h.sessions.Assets()
	views := make([]assetView, 0, len(assets))
	for _, asset := range assets {
		view := assetView{AssetClass: asset}
		for _, mode := range models.TradeModes() {
			view.Modes = append(view.Modes, tradeModeView{
				Mode:      mode,
				Label:     mode.Label(asset),
				Direction: mode.Direction(),
				Margin:    mode.IsMargin(),
			})
		}
		views = append(views, view)
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h *SessionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.sessions.Create(r.Context(), req.AssetClass, req.Ticker)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, session.View())
}

func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, session.View())
}

func (h *SessionHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) HandleResetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := session.Reset(); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, session.View())
}

func (h *SessionHandler) HandleGetBars(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}
	h.writeJSON(w, http.StatusOK, session.Bars(limit))
}

func (h *SessionHandler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	req := advanceRequest{Days: 1}
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	triggered, err := session.Advance(r.Context(), req.Days)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"triggered": nonNil(triggered),
		"session":   session.View(),
	})
}

func (h *SessionHandler) HandleSettle(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req settleRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	stats, err := session.Settle(r.Context(), req.ForceEnd)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":   stats,
		"roi":     stats.ROIString(),
		"session": session.View(),
	})
}

// HandleCloseAll flattens every open position at the current price with
// reason manual. The run stays active; use settle to end it.
func (h *SessionHandler) HandleCloseAll(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	transactions, err := session.CloseAll()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": nonNil(transactions),
		"session":      session.View(),
	})
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*trading.Session, bool) {
	session, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return nil, false
	}
	return session, true
}

func (h *SessionHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeDomainError maps the error taxonomy onto HTTP status codes
func (h *SessionHandler) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		h.log.Error().Err(err).Msg("Request failed")
	}
	h.writeError(w, status, err.Error())
}

// writeJSON writes a JSON response
func (h *SessionHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *SessionHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func nonNil(transactions []models.Transaction) []models.Transaction {
	if transactions == nil {
		return []models.Transaction{}
	}
	return transactions
}
