package store

import (
	"context"
	"encoding/json"
	"fmt"

	"bouquet-builder-backend/internal/domain"
)

// CartItem — принятая финализацией позиция: проверенные выборы,
// превью от клиента (как непрозрачный блоб) и авторитетная цена
type CartItem struct {
	ProductID  int64
	GroupID    int64
	Selections []domain.Selection
	Preview    string
	Total      float64
}

// AddCartItem сохраняет позицию и возвращает её ключ
func (s *Store) AddCartItem(ctx context.Context, item CartItem) (string, error) {
	selections, err := json.Marshal(item.Selections)
	if err != nil {
		return "", fmt.Errorf("marshal selections: %w", err)
	}

	key := domain.GenerateToken()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO cart_items (key, product_id, config_group, selections, preview, total)
VALUES ($1, $2, $3, $4, $5, $6);
`, key, item.ProductID, item.GroupID, selections, item.Preview, item.Total)
	if err != nil {
		return "", fmt.Errorf("insert cart item: %w", err)
	}
	return key, nil
}
