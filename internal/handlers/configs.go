package handlers

import (
	"io"
	"net/http"
)

// HandleConfig обслуживает /api/config?productId=N
//
//	GET    — каноническая конфигурация товара (публично, нужна витрине)
//	POST   — сохранить сырой конфиг; ответом идёт нормализованный (админ)
//	DELETE — удалить конфигурацию товара (админ)
func (e *Env) HandleConfig(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDParam(r)
	if err != nil {
		e.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		cfg, err := e.Configs.ProductConfig(r.Context(), productID)
		if err != nil {
			e.Log.Errorw("load config failed", "productId", productID, "err", err)
			e.writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if cfg == nil {
			e.writeError(w, http.StatusNotFound, "no configuration for product")
			return
		}
		e.writeJSON(w, cfg)

	case http.MethodPost:
		if !e.requireAdmin(w, r) {
			return
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, 4<<20)) // 4 МБ
		if err != nil {
			e.writeError(w, http.StatusBadRequest, "read body: "+err.Error())
			return
		}
		cfg, err := e.Configs.SaveProductConfig(r.Context(), productID, raw)
		if err != nil {
			e.writeError(w, http.StatusBadRequest, "save config: "+err.Error())
			return
		}
		e.Log.Infow("config saved", "productId", productID, "groupId", cfg.GroupID, "steps", len(cfg.Steps))
		e.writeJSON(w, cfg)

	case http.MethodDelete:
		if !e.requireAdmin(w, r) {
			return
		}
		if err := e.Configs.DeleteProductConfig(r.Context(), productID); err != nil {
			e.Log.Errorw("delete config failed", "productId", productID, "err", err)
			e.writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		e.writeJSON(w, map[string]bool{"deleted": true})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
