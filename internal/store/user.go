package store

import (
	"database/sql"
	"fmt"

	"github.com/lovechedule/lovechedule/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, name, email, push_enabled, anniversary_alert, created_at, updated_at`

func (s *UserStore) Create(name, email string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (name, email) VALUES (?, ?)`,
		name, email,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	return s.get(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	return s.get(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (s *UserStore) get(query string, arg any) (*model.User, error) {
	var u model.User
	var pushInt, annInt int

	err := s.db.QueryRow(query, arg).Scan(&u.ID, &u.Name, &u.Email, &pushInt, &annInt, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.PushEnabled = pushInt != 0
	u.AnniversaryAlert = annInt != 0
	return &u, nil
}

// UpdateName changes the user's display name.
func (s *UserStore) UpdateName(id int64, name string) (*model.User, error) {
	if _, err := s.db.Exec(
		`UPDATE users SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, id,
	); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

// UpdateNotificationPrefs sets the user's push and anniversary-alert
// toggles. Both are honored by the daily trigger.
func (s *UserStore) UpdateNotificationPrefs(id int64, pushEnabled, anniversaryAlert bool) (*model.User, error) {
	var pushInt, annInt int
	if pushEnabled {
		pushInt = 1
	}
	if anniversaryAlert {
		annInt = 1
	}
	if _, err := s.db.Exec(
		`UPDATE users SET push_enabled = ?, anniversary_alert = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		pushInt, annInt, id,
	); err != nil {
		return nil, fmt.Errorf("update prefs: %w", err)
	}
	return s.GetByID(id)
}
