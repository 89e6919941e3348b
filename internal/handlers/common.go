package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"bouquet-builder-backend/internal/domain"
	"bouquet-builder-backend/internal/engine"
	"bouquet-builder-backend/internal/store"
)

// ConfigStore — конфигурации товаров (чтение/запись/экспорт)
type ConfigStore interface {
	ProductConfig(ctx context.Context, productID int64) (*domain.Config, error)
	SaveProductConfig(ctx context.Context, productID int64, raw []byte) (*domain.Config, error)
	DeleteProductConfig(ctx context.Context, productID int64) error
	ExportConfigs(ctx context.Context) ([]store.ExportItem, error)
}

// ProductStore — каталог товаров
type ProductStore interface {
	ProductByID(ctx context.Context, id int64) (*domain.Product, error)
	ProductIDBySKU(ctx context.Context, sku string) (int64, error)
	ProductIDBySlug(ctx context.Context, slug string) (int64, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
}

// MediaStore — реестр загруженных картинок
type MediaStore interface {
	AddMedia(ctx context.Context, url string) (int64, error)
}

// CartStore — финализированные позиции корзины
type CartStore interface {
	AddCartItem(ctx context.Context, item store.CartItem) (string, error)
}

// UserStore — аутентификация
type UserStore interface {
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

// Env хранит зависимости для хендлеров.
type Env struct {
	Configs  ConfigStore
	Products ProductStore
	Media    MediaStore
	Cart     CartStore
	Users    UserStore

	Norm     *engine.Normalizer
	Renderer *engine.PreviewRenderer

	UploadDir string
	Log       *zap.SugaredLogger

	mu     sync.Mutex
	tokens map[string]*domain.User // токен -> пользователь
}

// writeJSON — простой helper для JSON-ответов
func (e *Env) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeError — JSON-ошибка вида { "error": "..." }
func (e *Env) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeValidationError — структурная ошибка финализации:
// код, индексы шага/опции и человекочитаемое сообщение
func (e *Env) writeValidationError(w http.ResponseWriter, verr *engine.ValidationError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":        verr.Code,
			"stepIndex":   verr.StepIndex,
			"optionIndex": verr.OptionIndex,
			"message":     verr.Message,
		},
	})
}

// IssueToken выдаёт токен сессии для пользователя
func (e *Env) IssueToken(u *domain.User) string {
	token := domain.GenerateToken()

	e.mu.Lock()
	if e.tokens == nil {
		e.tokens = make(map[string]*domain.User)
	}
	e.tokens[token] = u
	e.mu.Unlock()

	return token
}

// tokenUser — пользователь по токену из запроса (nil если нет/неверный)
func (e *Env) tokenUser(r *http.Request) *domain.User {
	token := r.Header.Get("Authorization")
	token = strings.TrimPrefix(token, "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tokens[token]
}

// requireAdmin проверяет токен администратора;
// при неудаче пишет 401 и возвращает false
func (e *Env) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	u := e.tokenUser(r)
	if u == nil || u.Role != domain.RoleAdmin {
		e.writeError(w, http.StatusUnauthorized, "admin token required")
		return false
	}
	return true
}

// productIDParam — обязательный query-параметр productId
func productIDParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("productId")
	if raw == "" {
		raw = r.URL.Query().Get("product_id")
	}
	if raw == "" {
		return 0, errors.New("productId is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("productId must be a positive integer")
	}
	return id, nil
}
