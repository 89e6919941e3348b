package store

import (
	"context"
	"database/sql"
	"fmt"
)

// AddMedia регистрирует загруженный файл и возвращает его id,
// по которому слои могут ссылаться на картинку числом
func (s *Store) AddMedia(ctx context.Context, url string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO media (url)
VALUES ($1)
RETURNING id;
`, url).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("register media: %w", err)
	}
	return id, nil
}

// ResolveMediaURL — реализация engine.MediaResolver: числовой id → URL
func (s *Store) ResolveMediaURL(id int64) (string, error) {
	var url string
	err := s.db.QueryRow(`SELECT url FROM media WHERE id = $1;`, id).Scan(&url)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("media %d not found", id)
	}
	if err != nil {
		return "", err
	}
	return url, nil
}
