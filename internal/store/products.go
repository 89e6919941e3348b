package store

import (
	"context"
	"database/sql"
	"fmt"

	"bouquet-builder-backend/internal/domain"
)

// ProductByID — товар по id; (nil, nil) если не найден
func (s *Store) ProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
SELECT id, title, sku, slug, price, created_at
FROM products
WHERE id = $1;
`, id).Scan(&p.ID, &p.Title, &p.SKU, &p.Slug, &p.Price, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", id, err)
	}
	return &p, nil
}

// ProductIDBySKU — поиск товара по артикулу; 0 если не найден
func (s *Store) ProductIDBySKU(ctx context.Context, sku string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM products WHERE sku = $1 LIMIT 1;`, sku).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ProductIDBySlug — поиск товара по слагу; 0 если не найден
func (s *Store) ProductIDBySlug(ctx context.Context, slug string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM products WHERE slug = $1 LIMIT 1;`, slug).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListProducts — все товары для админки
func (s *Store) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, sku, slug, price, created_at
FROM products
ORDER BY created_at DESC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.SKU, &p.Slug, &p.Price, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// SeedProductsIfEmpty засевает демо-товары, если таблица пустая
func (s *Store) SeedProductsIfEmpty(ctx context.Context, products []*domain.Product) error {
	var cnt int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&cnt); err != nil {
		return err
	}
	if cnt > 0 {
		// уже есть товары – ничего не делаем
		return nil
	}

	for _, p := range products {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO products (id, title, sku, slug, price, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING;
`, p.ID, p.Title, p.SKU, p.Slug, p.Price, p.CreatedAt)
		if err != nil {
			return err
		}
	}

	s.log.Info("seeded demo products")
	return nil
}
