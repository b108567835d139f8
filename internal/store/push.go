package store

import (
	"database/sql"
	"fmt"

	"github.com/lovechedule/lovechedule/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

// Subscribe records a browser push subscription. Re-subscribing with the
// same endpoint overwrites the keys, since browsers rotate them.
func (s *PushStore) Subscribe(userID int64, endpoint, p256dhKey, authKey string) (*model.PushSubscription, error) {
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh_key, auth_key)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET user_id = excluded.user_id, p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key`,
		userID, endpoint, p256dhKey, authKey,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}

	var sub model.PushSubscription
	err = s.db.QueryRow(
		`SELECT id, user_id, endpoint, p256dh_key, auth_key, created_at FROM push_subscriptions WHERE endpoint = ?`,
		endpoint,
	).Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("query subscription: %w", err)
	}
	return &sub, nil
}

func (s *PushStore) ListByUser(userID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, endpoint, p256dh_key, auth_key, created_at
		 FROM push_subscriptions WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		var sub model.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *PushStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// DeleteByEndpoint removes a subscription the push service has reported
// gone. Missing rows are not an error.
func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	if _, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}
