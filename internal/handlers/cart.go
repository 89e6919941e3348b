package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"bouquet-builder-backend/internal/engine"
	"bouquet-builder-backend/internal/store"
)

type addToCartRequest struct {
	ProductID       int64                       `json:"productId"`
	SelectedOptions []engine.SubmittedSelection `json:"selectedOptions"`
	PreviewImage    string                      `json:"previewImage,omitempty"`
}

// HandleAddToCart обслуживает POST /api/cart/add
// Финализация: присланные выборы проверяются против канонической
// конфигурации, цена пересчитывается на сервере. Клиентские цены
// не принимаются на веру.
func (e *Env) HandleAddToCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req addToCartRequest
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
	if product == nil {
		e.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	selections, total, err := engine.ValidateSubmission(cfg, req.SelectedOptions, product.Price)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			e.Log.Infow("cart add rejected", "productId", req.ProductID, "code", verr.Code)
			e.writeValidationError(w, verr)
			return
		}
		e.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := e.Cart.AddCartItem(r.Context(), store.CartItem{
		ProductID:  req.ProductID,
		GroupID:    cfg.GroupID,
		Selections: selections,
		Preview:    req.PreviewImage,
		Total:      total,
	})
	if err != nil {
		e.Log.Errorw("add cart item failed", "productId", req.ProductID, "err", err)
		e.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	e.Log.Infow("cart item added", "productId", req.ProductID, "cartKey", key, "total", total)
	e.writeJSON(w, map[string]interface{}{
		"success":    true,
		"cartKey":    key,
		"totalPrice": total,
	})
}
