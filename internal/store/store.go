package store

import (
	"database/sql"
	"sync"

	"go.uber.org/zap"

	"bouquet-builder-backend/internal/domain"
	"bouquet-builder-backend/internal/engine"
)

// Store — коллаборатор хранения: конфигурации с кэшем чтения,
// товары, медиа, позиции корзины и пользователи-операторы
type Store struct {
	db   *sql.DB
	log  *zap.SugaredLogger
	norm *engine.Normalizer

	mu    sync.RWMutex
	cache map[int64]*domain.Config // product id -> канонический конфиг
}

func New(db *sql.DB, log *zap.SugaredLogger) *Store {
	s := &Store{
		db:    db,
		log:   log,
		cache: make(map[int64]*domain.Config),
	}
	// Store сам является медиа-резолвером для нормализатора
	s.norm = &engine.Normalizer{Media: s, Log: log}
	return s
}

// Normalizer — общий нормализатор (его же используют импорт и сохранение)
func (s *Store) Normalizer() *engine.Normalizer {
	return s.norm
}
