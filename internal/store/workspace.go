package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lovechedule/lovechedule/internal/model"
)

// ErrWorkspaceFull is returned by Join once a workspace already has its
// full complement of members.
var ErrWorkspaceFull = errors.New("workspace is full")

// ErrAlreadyMember is returned by Join when the user already belongs to
// the workspace.
var ErrAlreadyMember = errors.New("user is already a member")

type WorkspaceStore struct {
	db *sql.DB
}

func NewWorkspaceStore(db *sql.DB) *WorkspaceStore {
	return &WorkspaceStore{db: db}
}

// Create makes a new workspace owned by masterID and enrolls the owner
// as its first member. The invite code is a random UUID handed to the
// partner out of band.
func (s *WorkspaceStore) Create(name string, masterID int64) (*model.Workspace, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	inviteCode := uuid.NewString()

	result, err := tx.Exec(
		`INSERT INTO workspaces (name, invite_code, master_id) VALUES (?, ?, ?)`,
		name, inviteCode, masterID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert workspace: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO workspace_members (workspace_id, user_id) VALUES (?, ?)`,
		id, masterID,
	); err != nil {
		return nil, fmt.Errorf("enroll master: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetByID(id)
}

func (s *WorkspaceStore) GetByID(id int64) (*model.Workspace, error) {
	return s.get(`SELECT id, name, invite_code, master_id, created_at FROM workspaces WHERE id = ?`, id)
}

func (s *WorkspaceStore) GetByInviteCode(code string) (*model.Workspace, error) {
	return s.get(`SELECT id, name, invite_code, master_id, created_at FROM workspaces WHERE invite_code = ?`, code)
}

func (s *WorkspaceStore) get(query string, arg any) (*model.Workspace, error) {
	var w model.Workspace
	err := s.db.QueryRow(query, arg).Scan(&w.ID, &w.Name, &w.InviteCode, &w.MasterID, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query workspace: %w", err)
	}
	return &w, nil
}

// Members returns the workspace's users ordered by join time, master first.
func (s *WorkspaceStore) Members(workspaceID int64) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT u.id, u.name, u.email, u.push_enabled, u.anniversary_alert, u.created_at, u.updated_at
		 FROM users u
		 JOIN workspace_members m ON m.user_id = u.id
		 WHERE m.workspace_id = ?
		 ORDER BY m.joined_at, u.id`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var pushInt, annInt int
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &pushInt, &annInt, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		u.PushEnabled = pushInt != 0
		u.AnniversaryAlert = annInt != 0
		users = append(users, u)
	}
	return users, rows.Err()
}

// Join adds userID to the workspace identified by the invite code. It
// fails with ErrWorkspaceFull once the member cap is reached, so a
// workspace never holds more than a couple.
func (s *WorkspaceStore) Join(inviteCode string, userID int64) (*model.Workspace, error) {
	w, err := s.GetByInviteCode(inviteCode)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM workspace_members WHERE workspace_id = ?`, w.ID,
	).Scan(&count); err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}

	var already int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM workspace_members WHERE workspace_id = ? AND user_id = ?`, w.ID, userID,
	).Scan(&already); err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if already > 0 {
		return nil, ErrAlreadyMember
	}
	if count >= model.MaxWorkspaceMembers {
		return nil, ErrWorkspaceFull
	}

	if _, err := tx.Exec(
		`INSERT INTO workspace_members (workspace_id, user_id) VALUES (?, ?)`,
		w.ID, userID,
	); err != nil {
		return nil, fmt.Errorf("enroll member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return w, nil
}

// WorkspacesForUser returns every workspace the user belongs to.
func (s *WorkspaceStore) WorkspacesForUser(userID int64) ([]model.Workspace, error) {
	rows, err := s.db.Query(
		`SELECT w.id, w.name, w.invite_code, w.master_id, w.created_at
		 FROM workspaces w
		 JOIN workspace_members m ON m.workspace_id = w.id
		 WHERE m.user_id = ?
		 ORDER BY w.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []model.Workspace
	for rows.Next() {
		var w model.Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.InviteCode, &w.MasterID, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		workspaces = append(workspaces, w)
	}
	return workspaces, rows.Err()
}
