package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"bouquet-builder-backend/internal/domain"
	"bouquet-builder-backend/internal/engine"
)

type previewRequest struct {
	ProductID       int64                       `json:"productId"`
	SelectedOptions []engine.SubmittedSelection `json:"selectedOptions"`
}

// HandlePreview обслуживает POST /api/preview
// Собирает стек слоёв по присланным выборам и отдаёт готовый PNG.
// Устаревший проход (его обогнал более новый запрос) отвечает 409,
// клиент просто не показывает этот кадр.
func (e *Env) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req previewRequest
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

	// Превью рисуется и для незавершённого выбора, поэтому здесь
	// не полная валидация: битые индексы просто пропускаются.
	stack := previewStack(cfg, req.SelectedOptions)

	png, err := e.Renderer.Render(r.Context(), stack)
	if err != nil {
		if errors.Is(err, engine.ErrStalePreview) {
			e.writeError(w, http.StatusConflict, "preview superseded")
			return
		}
		e.Log.Errorw("render preview failed", "productId", req.ProductID, "err", err)
		e.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// previewStack собирает слои по порядку шагов, игнорируя
// неизвестные индексы и текстовые шаги
func previewStack(cfg *domain.Config, submitted []engine.SubmittedSelection) []domain.Layer {
	var stack []domain.Layer
	for _, sel := range submitted {
		if sel.StepIndex < 0 || sel.StepIndex >= len(cfg.Steps) {
			continue
		}
		step := cfg.Steps[sel.StepIndex]
		if sel.OptionIndex < 0 || sel.OptionIndex >= len(step.Options) {
			continue
		}
		if step.IsTextual() {
			continue
		}

		quantity := sel.Quantity
		if quantity < 1 {
			quantity = 1
		}
		stack = append(stack, engine.EffectiveLayers(step.Options[sel.OptionIndex], quantity)...)
	}
	return stack
}
