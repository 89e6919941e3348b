package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bouquet-builder-backend/internal/domain"
	"bouquet-builder-backend/internal/engine"
	"bouquet-builder-backend/internal/store"
)

type fakeConfigStore struct {
	cfg   *domain.Config
	saved map[int64][]byte
}

func (f *fakeConfigStore) ProductConfig(_ context.Context, _ int64) (*domain.Config, error) {
	return f.cfg, nil
}

func (f *fakeConfigStore) SaveProductConfig(_ context.Context, productID int64, raw []byte) (*domain.Config, error) {
	if f.saved == nil {
		f.saved = make(map[int64][]byte)
	}
	f.saved[productID] = raw
	return f.cfg, nil
}

func (f *fakeConfigStore) DeleteProductConfig(_ context.Context, _ int64) error { return nil }

func (f *fakeConfigStore) ExportConfigs(_ context.Context) ([]store.ExportItem, error) {
	return nil, nil
}

type fakeProductStore struct {
	product *domain.Product
}

func (f *fakeProductStore) ProductByID(_ context.Context, id int64) (*domain.Product, error) {
	if f.product != nil && f.product.ID == id {
		return f.product, nil
	}
	return nil, nil
}

func (f *fakeProductStore) ProductIDBySKU(_ context.Context, sku string) (int64, error) {
	if f.product != nil && f.product.SKU == sku {
		return f.product.ID, nil
	}
	return 0, nil
}

func (f *fakeProductStore) ProductIDBySlug(_ context.Context, slug string) (int64, error) {
	if f.product != nil && f.product.Slug == slug {
		return f.product.ID, nil
	}
	return 0, nil
}

func (f *fakeProductStore) ListProducts(_ context.Context) ([]*domain.Product, error) {
	if f.product == nil {
		return nil, nil
	}
	return []*domain.Product{f.product}, nil
}

type fakeCartStore struct {
	items []store.CartItem
}

func (f *fakeCartStore) AddCartItem(_ context.Context, item store.CartItem) (string, error) {
	f.items = append(f.items, item)
	return "cart-key-1", nil
}

func handlerConfig() *domain.Config {
	return &domain.Config{
		Steps: []domain.Step{
			{
				Title:     "Основа",
				InputType: domain.InputRadio,
				Selection: domain.SelectionSingle,
				Required:  true,
				Options: []domain.Option{
					{Title: "Классика", Layers: []domain.Layer{{URL: "/uploads/base.png"}}},
					{Title: "Премиум", PriceType: domain.PriceFixed, PriceValue: 15, Layers: []domain.Layer{{URL: "/uploads/premium.png"}}},
				},
			},
			{
				Title:           "Цветы",
				InputType:       domain.InputCheckboxes,
				Selection:       domain.SelectionMultiple,
				MaxSelections:   2,
				DependencyRules: []domain.DependencyRule{{Step: 0, Option: domain.AnyOption()}},
				Options: []domain.Option{
					{Title: "Розы", Layers: []domain.Layer{{URL: "/uploads/rose.png", PriceDelta: 3}}},
				},
			},
		},
	}
}

func testEnv(cfg *domain.Config) (*Env, *fakeCartStore) {
	cart := &fakeCartStore{}
	return &Env{
		Configs:  &fakeConfigStore{cfg: cfg},
		Products: &fakeProductStore{product: &domain.Product{ID: 7, Title: "Букет", Price: 100}},
		Cart:     cart,
		Log:      zap.NewNop().Sugar(),
	}, cart
}

func TestHandleImportResolvesProducts(t *testing.T) {
	env, _ := testEnv(handlerConfig())
	env.Norm = &engine.Normalizer{}
	env.Products = &fakeProductStore{product: &domain.Product{ID: 7, SKU: "BQ-7", Slug: "bouquet-7", Price: 100}}
	token := env.IssueToken(&domain.User{ID: "admin", Role: domain.RoleAdmin})

	body := `{
		"version": "1.0",
		"items": [
			{"productSku": "BQ-7", "config": {"steps": [{"title": "Основа", "options": [{"title": "А"}]}]}},
			{"productId": 999, "config": {"steps": [{"title": "Основа"}]}},
			{"product_slug": "bouquet-7", "steps": []}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.HandleImport(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// первая позиция найдена по SKU, вторая — неизвестный товар,
	// третья — конфиг без валидных шагов
	assert.Equal(t, 1, resp["imported"])
	assert.Equal(t, 2, resp["skipped"])
}

func TestHandleExportRequiresAdmin(t *testing.T) {
	env, _ := testEnv(handlerConfig())

	rec := httptest.NewRecorder()
	env.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleConfigGet(t *testing.T) {
	env, _ := testEnv(handlerConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/config?productId=7", nil)
	rec := httptest.NewRecorder()
	env.HandleConfig(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var cfg domain.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Len(t, cfg.Steps, 2)

	// без productId — ошибка запроса
	rec = httptest.NewRecorder()
	env.HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleConfigGetNotFound(t *testing.T) {
	env, _ := testEnv(nil)

	rec := httptest.NewRecorder()
	env.HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config?productId=7", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleConfigPostRequiresAdmin(t *testing.T) {
	env, _ := testEnv(handlerConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/config?productId=7", bytes.NewBufferString(`{"steps":[]}`))
	rec := httptest.NewRecorder()
	env.HandleConfig(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// с токеном администратора сохранение проходит
	token := env.IssueToken(&domain.User{ID: "admin", Role: domain.RoleAdmin})
	req = httptest.NewRequest(http.MethodPost, "/api/config?productId=7", bytes.NewBufferString(`{"steps":[]}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	env.HandleConfig(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleQuoteReplaysActions(t *testing.T) {
	env, _ := testEnv(handlerConfig())

	body, _ := json.Marshal(quoteRequest{
		ProductID: 7,
		Actions: []quoteAction{
			{Type: "select", StepIndex: 0, OptionIndex: 1, Quantity: 1},
			{Type: "select", StepIndex: 1, OptionIndex: 0, Quantity: 1},
		},
	})

	rec := httptest.NewRecorder()
	env.HandleQuote(rec, httptest.NewRequest(http.MethodPost, "/api/quote", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []bool{true, true}, resp.VisibleSteps)
	assert.Len(t, resp.Selections, 2)
	assert.Equal(t, 100+15+3.0, resp.Total)
	assert.True(t, resp.Complete)
	assert.Len(t, resp.Layers, 2)
}

func TestHandleQuoteUnknownAction(t *testing.T) {
	env, _ := testEnv(handlerConfig())

	body, _ := json.Marshal(quoteRequest{
		ProductID: 7,
		Actions:   []quoteAction{{Type: "explode"}},
	})
	rec := httptest.NewRecorder()
	env.HandleQuote(rec, httptest.NewRequest(http.MethodPost, "/api/quote", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAddToCart(t *testing.T) {
	env, cart := testEnv(handlerConfig())

	body, _ := json.Marshal(addToCartRequest{
		ProductID: 7,
		SelectedOptions: []engine.SubmittedSelection{
			{StepIndex: 0, OptionIndex: 1},
			{StepIndex: 1, OptionIndex: 0},
		},
	})
	rec := httptest.NewRecorder()
	env.HandleAddToCart(rec, httptest.NewRequest(http.MethodPost, "/api/cart/add", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cart-key-1", resp["cartKey"])
	assert.Equal(t, 118.0, resp["totalPrice"])

	require.Len(t, cart.items, 1)
	assert.Equal(t, 118.0, cart.items[0].Total)
}

func TestHandleAddToCartValidationError(t *testing.T) {
	env, cart := testEnv(handlerConfig())

	// выбор в скрытом шаге: шаг 1 зависит от шага 0
	body, _ := json.Marshal(addToCartRequest{
		ProductID:       7,
		SelectedOptions: []engine.SubmittedSelection{{StepIndex: 1, OptionIndex: 0}},
	})
	rec := httptest.NewRecorder()
	env.HandleAddToCart(rec, httptest.NewRequest(http.MethodPost, "/api/cart/add", bytes.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error struct {
			Code      string `json:"code"`
			StepIndex int    `json:"stepIndex"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hidden_step", resp.Error.Code)
	assert.Equal(t, 1, resp.Error.StepIndex)
	assert.Empty(t, cart.items)
}
