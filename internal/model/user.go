package model

import "time"

type User struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PushEnabled      bool      `json:"push_enabled"`
	AnniversaryAlert bool      `json:"anniversary_alert"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
