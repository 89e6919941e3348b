package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"
)

var publicPageTmpl = template.Must(template.New("public").Parse(`<!DOCTYPE html>
<html lang="ru">
<head>
	<meta charset="utf-8">
	<title>{{.Title}} – конструктор букета</title>
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<style>
		body {
			margin: 0;
			font-family: system-ui, -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
			background: #f3f4f6;
			color: #111827;
		}
		.wrapper {
			min-height: 100vh;
			display: flex;
			align-items: center;
			justify-content: center;
			padding: 24px;
		}
		.card {
			background: #ffffff;
			border-radius: 16px;
			box-shadow: 0 20px 45px rgba(15, 23, 42, 0.18);
			max-width: 860px;
			width: 100%;
			padding: 24px;
		}
		h1 {
			font-size: 20px;
			margin: 0 0 8px 0;
		}
		.price {
			font-size: 14px;
			color: #6b7280;
		}
	</style>
</head>
<body>
	<div class="wrapper">
		<div class="card">
			<h1>{{.Title}}</h1>
			<div class="price">Базовая цена: {{.Price}}</div>
			<div id="bouquet-builder" data-product-id="{{.ProductID}}"></div>
		</div>
	</div>
	<script>
		window.BOUQUET_PRODUCT = {id: {{.ProductID}}, basePrice: {{.Price}}};
		window.BOUQUET_CONFIG = {{.ConfigJSON}};
	</script>
	<script src="/app.js"></script>
</body>
</html>
`))

// HandlePublicProductPage обслуживает GET /p/{productId}
// Отдаёт страницу конструктора с конфигом, вшитым в разметку:
// виджету не нужен отдельный запрос за конфигурацией.
func (e *Env) HandlePublicProductPage(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/p/")
	raw = strings.TrimSuffix(raw, "/")
	productID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || productID <= 0 {
		http.NotFound(w, r)
		return
	}

	product, err := e.Products.ProductByID(r.Context(), productID)
	if err != nil {
		e.Log.Errorw("load product failed", "productId", productID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if product == nil {
		http.NotFound(w, r)
		return
	}

	cfg, err := e.Configs.ProductConfig(r.Context(), productID)
	if err != nil {
		e.Log.Errorw("load config failed", "productId", productID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if cfg == nil {
		http.NotFound(w, r)
		return
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		http.Error(w, "failed to marshal config", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	publicPageTmpl.Execute(w, map[string]interface{}{
		"Title":      product.Title,
		"Price":      product.Price,
		"ProductID":  product.ID,
		"ConfigJSON": template.JS(cfgJSON),
	})
}
