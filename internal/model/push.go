package model

import "time"

// PushSubscription is one registered browser/device push endpoint.
type PushSubscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"-"`
	AuthKey   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
