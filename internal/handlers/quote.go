package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"bouquet-builder-backend/internal/domain"
	"bouquet-builder-backend/internal/engine"
)

// quoteAction — одно действие клиента над сессией выбора
type quoteAction struct {
	Type        string  `json:"type"` // select | deselect | quantity | text | custom_price
	StepIndex   int     `json:"stepIndex"`
	OptionIndex int     `json:"optionIndex"`
	Quantity    int     `json:"quantity,omitempty"` // для select
	Delta       int     `json:"delta,omitempty"`    // для quantity
	Value       string  `json:"value,omitempty"`    // для text
	Price       float64 `json:"price,omitempty"`    // для custom_price
}

type quoteRequest struct {
	ProductID int64         `json:"productId"`
	Actions   []quoteAction `json:"actions"`
}

type quoteResponse struct {
	VisibleSteps []bool             `json:"visibleSteps"`
	Selections   []domain.Selection `json:"selections"`
	Total        float64            `json:"total"`
	Complete     bool               `json:"complete"`
	Layers       []domain.Layer     `json:"layers"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// HandleQuote обслуживает POST /api/quote
// Проигрывает действия клиента через серверную сессию и возвращает
// итоговое состояние: видимость шагов, выборы, цену и стек слоёв.
// Превышение лимита выбора — предупреждение, а не ошибка запроса.
func (e *Env) HandleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		e.writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	if req.ProductID <= 0 {
		e.writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	cfg, err := e.Configs.ProductConfig(r.Context(), req.ProductID)
	if err != nil {
		e.Log.Errorw("load config failed", "productId", req.ProductID, "err", err)
		e.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if cfg == nil {
		e.writeError(w, http.StatusNotFound, "no configuration for product")
		return
	}

	product, err := e.Products.ProductByID(r.Context(), req.ProductID)
	if err != nil {
		e.Log.Errorw("load product failed", "productId", req.ProductID, "err", err)
		e.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	var basePrice float64
	if product != nil {
		basePrice = product.Price
	}

	sess := engine.NewSession(cfg, basePrice)
	var warnings []string

	for i, a := range req.Actions {
		var err error
		switch a.Type {
		case "select":
			err = sess.Select(a.StepIndex, a.OptionIndex, a.Quantity)
		case "deselect":
			sess.Deselect(a.StepIndex, a.OptionIndex)
		case "quantity":
			err = sess.SetQuantity(a.StepIndex, a.OptionIndex, a.Delta)
		case "text":
			err = sess.SetTextValue(a.StepIndex, a.OptionIndex, a.Value)
		case "custom_price":
			err = sess.SetCustomPrice(a.StepIndex, a.OptionIndex, a.Price)
		default:
			e.writeError(w, http.StatusBadRequest, fmt.Sprintf("action %d: unknown type %q", i, a.Type))
			return
		}

		if errors.Is(err, engine.ErrSelectionCap) {
			warnings = append(warnings, fmt.Sprintf("action %d: selection cap reached on step %d", i, a.StepIndex))
			continue
		}
		if err != nil {
			e.writeError(w, http.StatusBadRequest, fmt.Sprintf("action %d: %v", i, err))
			return
		}
	}

	resp := quoteResponse{
		VisibleSteps: sess.Visible(),
		Selections:   sess.Selections(),
		Total:        sess.Total(),
		Complete:     sess.IsComplete(),
		Layers:       sess.RenderStack(),
		Warnings:     warnings,
	}
	if resp.Selections == nil {
		resp.Selections = []domain.Selection{}
	}
	if resp.Layers == nil {
		resp.Layers = []domain.Layer{}
	}
	e.writeJSON(w, resp)
}
