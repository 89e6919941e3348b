package handlers

import (
	"net/http"

	"bouquet-builder-backend/internal/domain"
)

// HandleProducts обслуживает GET /api/products — список товаров
func (e *Env) HandleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	products, err := e.Products.ListProducts(r.Context())
	if err != nil {
		e.Log.Errorw("list products failed", "err", err)
		e.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if products == nil {
		products = []*domain.Product{} // пустой список сериализуем как []
	}

	e.writeJSON(w, map[string]interface{}{
		"products": products,
	})
}
