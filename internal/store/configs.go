package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"bouquet-builder-backend/internal/domain"
)

// ProductConfig — каноническая конфигурация товара (самая свежая запись).
// Сквозной кэш: промах читает БД, нормализует и запоминает результат.
// Отсутствие конфигурации — не ошибка: (nil, nil).
func (s *Store) ProductConfig(ctx context.Context, productID int64) (*domain.Config, error) {
	s.mu.RLock()
	cached := s.cache[productID]
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	var (
		groupID int64
		raw     []byte
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, config
FROM custom_groups
WHERE product_id = $1
ORDER BY id DESC
LIMIT 1;
`, productID).Scan(&groupID, &raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config for product %d: %w", productID, err)
	}

	cfg, err := s.norm.NormalizeConfigJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize config for product %d: %w", productID, err)
	}
	cfg.GroupID = groupID

	s.mu.Lock()
	s.cache[productID] = cfg
	s.mu.Unlock()

	return cfg, nil
}

// SaveProductConfig нормализует сырой конфиг и сохраняет канонический JSON.
// Самая свежая запись обновляется на месте, иначе создаётся новая.
// Кэш инвалидируется явно.
func (s *Store) SaveProductConfig(ctx context.Context, productID int64, raw []byte) (*domain.Config, error) {
	cfg, err := s.norm.NormalizeConfigJSON(raw)
	if err != nil {
		return nil, err
	}
	cfg.GroupID = 0

	canonical, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	var groupID int64
	err = s.db.QueryRowContext(ctx, `
SELECT id FROM custom_groups
WHERE product_id = $1
ORDER BY id DESC
LIMIT 1;
`, productID).Scan(&groupID)

	switch {
	case err == sql.ErrNoRows:
		err = s.db.QueryRowContext(ctx, `
INSERT INTO custom_groups (product_id, config)
VALUES ($1, $2)
RETURNING id;
`, productID, canonical).Scan(&groupID)
		if err != nil {
			return nil, fmt.Errorf("insert config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("lookup config: %w", err)
	default:
		if _, err := s.db.ExecContext(ctx, `
UPDATE custom_groups SET config = $1 WHERE id = $2;
`, canonical, groupID); err != nil {
			return nil, fmt.Errorf("update config: %w", err)
		}
	}

	cfg.GroupID = groupID
	s.InvalidateConfig(productID)
	return cfg, nil
}

// DeleteProductConfig удаляет все конфигурации товара и чистит кэш
func (s *Store) DeleteProductConfig(ctx context.Context, productID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM custom_groups WHERE product_id = $1;`, productID); err != nil {
		return fmt.Errorf("delete config: %w", err)
	}
	s.InvalidateConfig(productID)
	return nil
}

// InvalidateConfig — явная инвалидация кэша по товару
func (s *Store) InvalidateConfig(productID int64) {
	s.mu.Lock()
	delete(s.cache, productID)
	s.mu.Unlock()
}

// ExportItem — одна позиция экспортного файла
type ExportItem struct {
	GroupID      int64          `json:"groupId"`
	ProductID    int64          `json:"productId"`
	ProductTitle string         `json:"productTitle,omitempty"`
	ProductSKU   string         `json:"productSku,omitempty"`
	ProductSlug  string         `json:"productSlug,omitempty"`
	Config       *domain.Config `json:"config"`
}

// ExportConfigs собирает самые свежие конфигурации всех товаров
func (s *Store) ExportConfigs(ctx context.Context) ([]ExportItem, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT ON (g.product_id)
       g.id, g.product_id, g.config, p.title, p.sku, p.slug
FROM custom_groups g
JOIN products p ON p.id = g.product_id
ORDER BY g.product_id, g.id DESC;
`)
	if err != nil {
		return nil, fmt.Errorf("export configs: %w", err)
	}
	defer rows.Close()

	var items []ExportItem
	for rows.Next() {
		var (
			item ExportItem
			raw  []byte
		)
		if err := rows.Scan(&item.GroupID, &item.ProductID, &raw, &item.ProductTitle, &item.ProductSKU, &item.ProductSlug); err != nil {
			return nil, err
		}

		cfg, err := s.norm.NormalizeConfigJSON(raw)
		if err != nil {
			s.log.Warnf("export: product %d config skipped: %v", item.ProductID, err)
			continue
		}
		cfg.GroupID = item.GroupID
		item.Config = cfg
		items = append(items, item)
	}
	return items, rows.Err()
}
