package app

import (
	"net/http"

	"bouquet-builder-backend/internal/handlers"
)

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func registerRoutes(mux *http.ServeMux, env *handlers.Env) {
	// --- API ---
	mux.Handle("/api/config", withCORS(http.HandlerFunc(env.HandleConfig)))
	mux.Handle("/api/quote", withCORS(http.HandlerFunc(env.HandleQuote)))
	mux.Handle("/api/cart/add", withCORS(http.HandlerFunc(env.HandleAddToCart)))
	mux.Handle("/api/preview", withCORS(http.HandlerFunc(env.HandlePreview)))
	mux.Handle("/api/products", withCORS(http.HandlerFunc(env.HandleProducts)))
	mux.Handle("/api/login", withCORS(http.HandlerFunc(env.HandleLogin)))

	// перенос конфигураций между установками
	mux.Handle("/api/export", withCORS(http.HandlerFunc(env.HandleExport)))
	mux.Handle("/api/import", withCORS(http.HandlerFunc(env.HandleImport)))

	// загрузка файлов (картинки для слоёв)
	mux.Handle("/api/upload", withCORS(http.HandlerFunc(env.HandleUpload)))

	// публичная страница конструктора
	mux.Handle("/p/", http.HandlerFunc(env.HandlePublicProductPage))

	// загруженные картинки
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(env.UploadDir))))
}
