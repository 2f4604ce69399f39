package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"abonado-server-go/internal/domain/auth/model"
	"abonado-server-go/internal/platform/storage"

	"gorm.io/gorm"
)

type sqliteStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewSQLite builds a SQLite-backed session store.
func NewSQLite(db *gorm.DB, cfg Config) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{
		db:  db,
		ttl: cfg.TTL,
	}, nil
}

func (s *sqliteStore) Store(ctx context.Context, info model.SessionInfo) error {
	now := time.Now()
	if info.CreatedAt.IsZero() {
		info.CreatedAt = now
	}
	if info.ExpiresAt == nil && s.ttl > 0 {
		exp := info.CreatedAt.Add(s.ttl)
		info.ExpiresAt = &exp
	}
	meta, _ := json.Marshal(info.Metadata)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", info.SessionID).Delete(&storage.AuthSession{}).Error; err != nil {
			return err
		}
		record := &storage.AuthSession{
			SessionID: info.SessionID,
			Username:  info.Username,
			IP:        info.IP,
			UserAgent: info.UserAgent,
			CreatedAt: info.CreatedAt,
			ExpiresAt: info.ExpiresAt,
			Metadata:  meta,
		}
		return tx.Create(record).Error
	})
}

func (s *sqliteStore) Active(ctx context.Context, sessionID string) (model.SessionInfo, bool, error) {
	info, err := s.fetch(ctx, sessionID)
	if err != nil {
		if errorsIsNotFound(err) {
			return model.SessionInfo{}, false, nil
		}
		return model.SessionInfo{}, false, err
	}
	if info.ExpiresAt != nil && time.Now().After(*info.ExpiresAt) {
		return model.SessionInfo{}, false, nil
	}
	return info, true, nil
}

func (s *sqliteStore) Get(ctx context.Context, sessionID string) (model.SessionInfo, error) {
	info, err := s.fetch(ctx, sessionID)
	if err != nil {
		return model.SessionInfo{}, err
	}
	if info.ExpiresAt != nil && time.Now().After(*info.ExpiresAt) {
		return model.SessionInfo{}, fmt.Errorf("session expired: %s", sessionID)
	}
	return info, nil
}

func (s *sqliteStore) Remove(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&storage.AuthSession{}).Error
}

func (s *sqliteStore) List(ctx context.Context) ([]string, error) {
	var sessions []storage.AuthSession
	if err := s.db.WithContext(ctx).Select("session_id", "expires_at").Find(&sessions).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	ids := make([]string, 0, len(sessions))
	for _, c := range sessions {
		if c.ExpiresAt == nil || now.Before(*c.ExpiresAt) {
			ids = append(ids, c.SessionID)
		}
	}
	return ids, nil
}

func (s *sqliteStore) CleanupExpired(ctx context.Context) error {
	if s.ttl <= 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&storage.AuthSession{}).
		Error
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&storage.AuthSession{}).Count(&total).Error; err != nil {
		return nil, err
	}
	return map[string]any{
		"type":  "sqlite",
		"total": total,
		"ttl":   int(s.ttl.Seconds()),
	}, nil
}

func (s *sqliteStore) Close(context.Context) error {
	return nil
}

func (s *sqliteStore) fetch(ctx context.Context, sessionID string) (model.SessionInfo, error) {
	var session storage.AuthSession
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if errorsIsNotFound(err) {
		return model.SessionInfo{}, fmt.Errorf("session not found: %s: %w", sessionID, gorm.ErrRecordNotFound)
	}
	if err != nil {
		return model.SessionInfo{}, err
	}
	info := model.SessionInfo{
		SessionID: session.SessionID,
		Username:  session.Username,
		IP:        session.IP,
		UserAgent: session.UserAgent,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}
	if len(session.Metadata) > 0 {
		var meta map[string]any
		if err := json.Unmarshal(session.Metadata, &meta); err == nil {
			info.Metadata = meta
		}
	}
	return info, nil
}

func errorsIsNotFound(err error) bool {
	return err != nil && errors.Is(err, gorm.ErrRecordNotFound)
}
