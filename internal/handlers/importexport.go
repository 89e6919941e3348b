package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"bouquet-builder-backend/internal/store"
)

const exportVersion = "1.0"

type exportEnvelope struct {
	Version    string             `json:"version"`
	ExportedAt time.Time          `json:"exportedAt"`
	Count      int                `json:"count"`
	Items      []store.ExportItem `json:"items"`
}

// HandleExport обслуживает GET /api/export (админ)
// Отдаёт самые свежие конфигурации всех товаров одним файлом.
// Кроме id товара пишем SKU и слаг: при импорте в другой каталог
// числовые id обычно не совпадают.
func (e *Env) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !e.requireAdmin(w, r) {
		return
	}

	items, err := e.Configs.ExportConfigs(r.Context())
	if err != nil {
		e.Log.Errorw("export failed", "err", err)
		e.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []store.ExportItem{}
	}

	w.Header().Set("Content-Disposition", `attachment; filename="bouquet-configs.json"`)
	e.writeJSON(w, exportEnvelope{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Count:      len(items),
		Items:      items,
	})
}

// importItem принимает обе схемы ключей: camelCase нашего экспорта
// и snake_case старых выгрузок
type importItem struct {
	ProductID       int64           `json:"productId"`
	LegacyProductID int64           `json:"product_id"`
	ProductSKU      string          `json:"productSku"`
	LegacySKU       string          `json:"product_sku"`
	ProductSlug     string          `json:"productSlug"`
	LegacySlug      string          `json:"product_slug"`
	Config          json.RawMessage `json:"config"`
	Steps           json.RawMessage `json:"steps"`
}

func (it importItem) productID() int64 {
	if it.ProductID != 0 {
		return it.ProductID
	}
	return it.LegacyProductID
}

func (it importItem) sku() string {
	if it.ProductSKU != "" {
		return it.ProductSKU
	}
	return it.LegacySKU
}

func (it importItem) slug() string {
	if it.ProductSlug != "" {
		return it.ProductSlug
	}
	return it.LegacySlug
}

// rawConfig — конфиг позиции: либо целиком, либо собранный из steps
func (it importItem) rawConfig() []byte {
	if len(it.Config) > 0 && string(it.Config) != "null" {
		return it.Config
	}
	if len(it.Steps) > 0 && string(it.Steps) != "null" {
		return []byte(`{"steps":` + string(it.Steps) + `}`)
	}
	return nil
}

type importEnvelope struct {
	Version string       `json:"version"`
	Items   []importItem `json:"items"`
}

// HandleImport обслуживает POST /api/import (админ)
// Принимает файл экспорта (JSON-телом или multipart-полем file).
// Каждая позиция привязывается к товару по id, затем по SKU, затем
// по слагу. Нераспознанные и пустые позиции пропускаются, импорт
// продолжается; ответ содержит счётчики.
func (e *Env) HandleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !e.requireAdmin(w, r) {
		return
	}

	body, err := importBody(r)
	if err != nil {
		e.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := parseImportItems(body)
	if err != nil {
		e.writeError(w, http.StatusBadRequest, "bad import file: "+err.Error())
		return
	}

	imported, skipped := 0, 0
	for i, it := range items {
		productID, reason := e.resolveImportProduct(r, it)
		if productID == 0 {
			e.Log.Warnw("import: item skipped", "index", i, "reason", reason)
			skipped++
			continue
		}

		raw := it.rawConfig()
		if raw == nil {
			e.Log.Warnw("import: item skipped", "index", i, "reason", "no config")
			skipped++
			continue
		}

		cfg, err := e.Norm.NormalizeConfigJSON(raw)
		if err != nil || len(cfg.Steps) == 0 {
			e.Log.Warnw("import: item skipped", "index", i, "productId", productID, "reason", "config has no valid steps")
			skipped++
			continue
		}

		if _, err := e.Configs.SaveProductConfig(r.Context(), productID, raw); err != nil {
			e.Log.Warnw("import: item skipped", "index", i, "productId", productID, "err", err)
			skipped++
			continue
		}
		imported++
	}

	e.Log.Infow("import finished", "imported", imported, "skipped", skipped)
	e.writeJSON(w, map[string]int{
		"imported": imported,
		"skipped":  skipped,
	})
}

// resolveImportProduct ищет товар позиции: id -> SKU -> слаг
func (e *Env) resolveImportProduct(r *http.Request, it importItem) (int64, string) {
	ctx := r.Context()

	if id := it.productID(); id > 0 {
		p, err := e.Products.ProductByID(ctx, id)
		if err == nil && p != nil {
			return p.ID, ""
		}
	}
	if sku := it.sku(); sku != "" {
		id, err := e.Products.ProductIDBySKU(ctx, sku)
		if err == nil && id > 0 {
			return id, ""
		}
	}
	if slug := it.slug(); slug != "" {
		id, err := e.Products.ProductIDBySlug(ctx, slug)
		if err == nil && id > 0 {
			return id, ""
		}
	}
	return 0, "product not found"
}

// importBody достаёт JSON: либо multipart-поле file, либо само тело
func importBody(r *http.Request) ([]byte, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(16 << 20); err != nil { // 16 МБ
			return nil, err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(io.LimitReader(r.Body, 16<<20))
}

// parseImportItems понимает и конверт {version, items}, и голый массив
func parseImportItems(body []byte) ([]importItem, error) {
	var env importEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Items) > 0 {
		return env.Items, nil
	}

	var items []importItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}
