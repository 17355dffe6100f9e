package handlers

import (
	"net/http"
	"strconv"

	"TradeSimulator/internal/models"

	"github.com/go-chi/chi/v5"
)

// Quantity and Percent are alternatives; Percent wins when both are set.
type openPositionRequest struct {
	Mode     models.TradeMode `json:"mode"`
	Quantity float64          `json:"quantity"`
	Percent  float64          `json:"percent"`
	Leverage float64          `json:"leverage"`
}

type protectionRequest struct {
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
}

type closePositionRequest struct {
	Quantity float64 `json:"quantity"`
	Percent  float64 `json:"percent"`
}

func (h *SessionHandler) HandleOpenPosition(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	req := openPositionRequest{Leverage: 1}
	if !h.decode(w, r, &req) {
		return
	}

	var (
		position *models.Position
		err      error
	)
	if req.Percent > 0 {
		position, err = session.OpenPercent(req.Mode, req.Percent, req.Leverage)
	} else {
		position, err = session.Open(req.Mode, req.Quantity, req.Leverage)
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"position": position,
		"session":  session.View(),
	})
}

func (h *SessionHandler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	mode, err := models.ParseTradeMode(query.Get("mode"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	quantity, err := strconv.ParseFloat(query.Get("quantity"), 64)
	if err != nil || quantity <= 0 {
		h.writeError(w, http.StatusBadRequest, "quantity must be a positive number")
		return
	}
	leverage := 1.0
	if raw := query.Get("leverage"); raw != "" {
		if leverage, err = strconv.ParseFloat(raw, 64); err != nil {
			h.writeError(w, http.StatusBadRequest, "leverage must be a number")
			return
		}
	}
	h.writeJSON(w, http.StatusOK, session.Quote(mode, quantity, leverage))
}

func (h *SessionHandler) HandleSetProtection(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req protectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := session.SetProtection(chi.URLParam(r, "pid"), req.StopLoss, req.TakeProfit); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, session.View())
}

func (h *SessionHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	price, err := strconv.ParseFloat(r.URL.Query().Get("price"), 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "price must be a number")
		return
	}
	pnl, err := session.PreviewPnL(chi.URLParam(r, "pid"), price)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]float64{"price": price, "pnl": pnl})
}

func (h *SessionHandler) HandleClosePosition(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req closePositionRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		transaction *models.Transaction
		err         error
	)
	positionID := chi.URLParam(r, "pid")
	if req.Percent > 0 {
		transaction, err = session.ClosePercent(positionID, req.Percent)
	} else {
		transaction, err = session.Close(positionID, req.Quantity)
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"transaction": transaction,
		"session":     session.View(),
	})
}
