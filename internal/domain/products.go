package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Product — товар, к которому привязывается конфигурация кастомизации.
// Базовая цена используется движком для процентных наценок.
type Product struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	SKU       string    `json:"sku"`
	Slug      string    `json:"slug"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

// GenerateToken — простой генератор непредсказуемого ключа
// (токены сессий, ключи позиций корзины)
func GenerateToken() string {
	const size = 16
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		// в крайнем случае — fallback, чтобы не паниковать
		return time.Now().Format("20060102150405")
	}
	return hex.EncodeToString(b)
}

// DemoProducts — демо-товары для старта
func DemoProducts() []*Product {
	now := time.Now()

	return []*Product{
		{
			ID:        1,
			Title:     "Букет-конструктор (демо)",
			SKU:       "BQ-DEMO-1",
			Slug:      "bouquet-demo",
			Price:     35,
			CreatedAt: now.Add(-48 * time.Hour),
		},
		{
			ID:        2,
			Title:     "Корзина с цветами (демо)",
			SKU:       "BQ-DEMO-2",
			Slug:      "flower-basket-demo",
			Price:     50,
			CreatedAt: now.Add(-24 * time.Hour),
		},
	}
}
