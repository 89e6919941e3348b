package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"

	"go.uber.org/zap"

	"bouquet-builder-backend/internal/domain"
	"bouquet-builder-backend/internal/engine"
	"bouquet-builder-backend/internal/handlers"
	"bouquet-builder-backend/internal/store"
)

type App struct {
	mux *http.ServeMux
	Env *handlers.Env
}

func New(db *sql.DB, log *zap.SugaredLogger) (*App, error) {
	mux := http.NewServeMux()
	ctx := context.Background()

	// 1. Схема БД (ensureSchema объявлен в db.go)
	if err := ensureSchema(db); err != nil {
		return nil, err
	}

	st := store.New(db, log)

	// 2. Демо-товары, если каталог пустой
	if err := st.SeedProductsIfEmpty(ctx, domain.DemoProducts()); err != nil {
		return nil, err
	}

	// 3. Демо-конфигурация для первого товара, если её ещё нет
	if err := seedDemoConfig(ctx, st); err != nil {
		return nil, err
	}

	// 4. Администратор из окружения (пустая таблица users)
	adminEmail := envOr("ADMIN_EMAIL", "admin@example.com")
	adminPassword := envOr("ADMIN_PASSWORD", "admin")
	if err := st.EnsureAdminUser(ctx, adminEmail, "Администратор", adminPassword); err != nil {
		return nil, err
	}

	env := &handlers.Env{
		Configs:  st,
		Products: st,
		Media:    st,
		Cart:     st,
		Users:    st,

		Norm: st.Normalizer(),
		Renderer: &engine.PreviewRenderer{
			BaseURL: os.Getenv("PREVIEW_BASE_URL"),
			Log:     log,
		},

		UploadDir: envOr("UPLOAD_DIR", "./uploads"),
		Log:       log,
	}

	registerRoutes(mux, env)

	return &App{
		mux: mux,
		Env: env,
	}, nil
}

func (a *App) Router() *http.ServeMux {
	return a.mux
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// seedDemoConfig вешает демо-конфигурацию на первый демо-товар,
// чтобы свежая установка сразу показывала рабочий конструктор
func seedDemoConfig(ctx context.Context, st *store.Store) error {
	products := domain.DemoProducts()
	if len(products) == 0 {
		return nil
	}
	first := products[0]

	cfg, err := st.ProductConfig(ctx, first.ID)
	if err != nil {
		return err
	}
	if cfg != nil {
		// конфигурация уже есть – ничего не делаем
		return nil
	}

	raw, err := json.Marshal(domain.NewDemoConfig())
	if err != nil {
		return err
	}
	_, err = st.SaveProductConfig(ctx, first.ID, raw)
	return err
}
