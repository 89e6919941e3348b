package store

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"bouquet-builder-backend/internal/domain"
)

// EnsureAdminUser создаёт администратора, если таблица users пустая.
// Пароль хранится только bcrypt-хешем.
func (s *Store) EnsureAdminUser(ctx context.Context, email, name, password string) error {
	var cnt int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&cnt); err != nil {
		return err
	}
	if cnt > 0 {
		// уже есть пользователи – ничего не делаем
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO users (id, email, name, role, password_hash)
VALUES ('admin', $1, $2, 'admin', $3)
ON CONFLICT (id) DO NOTHING;
`, email, name, string(hash))
	if err != nil {
		return err
	}

	s.log.Infow("created admin user", "email", email)
	return nil
}

// Authenticate проверяет пару email/пароль; (nil, nil) при несовпадении
func (s *Store) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	var (
		u    domain.User
		hash string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, email, name, role, password_hash, created_at
FROM users
WHERE email = $1;
`, email).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &hash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, nil
	}
	return &u, nil
}

// SetUserPassword устанавливает новый пароль (bcrypt-хеш)
func (s *Store) SetUserPassword(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2;`, string(hash), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}
