package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lovechedule/lovechedule/internal/model"
)

type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

const scheduleColumns = `id, workspace_id, title, memo, start_date, end_date, calendar_type, repeat_type, is_anniversary, created_at, updated_at`

func (s *ScheduleStore) Create(workspaceID int64, title, memo, startDate, endDate string, calendar model.CalendarType, repeat model.RepeatType, participants []int64, isAnniversary bool) (*model.Schedule, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var annInt int
	if isAnniversary {
		annInt = 1
	}

	result, err := tx.Exec(
		`INSERT INTO schedules (workspace_id, title, memo, start_date, end_date, calendar_type, repeat_type, is_anniversary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		workspaceID, title, memo, startDate, endDate, string(calendar), string(repeat), annInt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := replaceParticipants(tx, id, participants); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetByID(id)
}

func (s *ScheduleStore) GetByID(id int64) (*model.Schedule, error) {
	var sc model.Schedule
	var annInt int

	err := s.db.QueryRow(
		`SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id,
	).Scan(&sc.ID, &sc.WorkspaceID, &sc.Title, &sc.Memo, &sc.StartDate, &sc.EndDate, &sc.Calendar, &sc.Repeat, &annInt, &sc.CreatedAt, &sc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query schedule: %w", err)
	}
	sc.IsAnniversary = annInt != 0

	list := []model.Schedule{sc}
	if err := s.attachParticipants(list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *ScheduleStore) Update(id int64, title, memo, startDate, endDate string, calendar model.CalendarType, repeat model.RepeatType, participants []int64, isAnniversary bool) (*model.Schedule, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var annInt int
	if isAnniversary {
		annInt = 1
	}

	_, err = tx.Exec(
		`UPDATE schedules
		 SET title = ?, memo = ?, start_date = ?, end_date = ?, calendar_type = ?, repeat_type = ?, is_anniversary = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		title, memo, startDate, endDate, string(calendar), string(repeat), annInt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM schedule_participants WHERE schedule_id = ?`, id); err != nil {
		return nil, fmt.Errorf("clear participants: %w", err)
	}
	if err := replaceParticipants(tx, id, participants); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetByID(id)
}

func (s *ScheduleStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM schedules WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// ListByWorkspace returns every template in the workspace, unfiltered by
// date (raw listing mode), in anchor order.
func (s *ScheduleStore) ListByWorkspace(workspaceID int64) ([]model.Schedule, error) {
	return s.list(
		`SELECT `+scheduleColumns+` FROM schedules WHERE workspace_id = ? ORDER BY start_date, id`,
		workspaceID,
	)
}

// FindCandidates returns the resolution candidates for a window span: every
// recurring template plus non-recurring templates whose anchor falls inside
// [rangeStart, rangeEnd). The bounds are wall-clock strings; the stored
// format makes the comparison lexicographic-safe.
func (s *ScheduleStore) FindCandidates(workspaceID int64, rangeStart, rangeEnd string) ([]model.Schedule, error) {
	return s.list(
		`SELECT `+scheduleColumns+` FROM schedules
		 WHERE workspace_id = ?
		   AND (repeat_type != 'none' OR (start_date >= ? AND start_date < ?))
		 ORDER BY start_date, id`,
		workspaceID, rangeStart, rangeEnd,
	)
}

// ListByAnniversary returns all templates across workspaces with the given
// anniversary flag, for the daily notification pass.
func (s *ScheduleStore) ListByAnniversary(isAnniversary bool) ([]model.Schedule, error) {
	var annInt int
	if isAnniversary {
		annInt = 1
	}
	return s.list(
		`SELECT `+scheduleColumns+` FROM schedules WHERE is_anniversary = ? ORDER BY workspace_id, start_date, id`,
		annInt,
	)
}

func (s *ScheduleStore) list(query string, args ...any) ([]model.Schedule, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		var sc model.Schedule
		var annInt int
		if err := rows.Scan(&sc.ID, &sc.WorkspaceID, &sc.Title, &sc.Memo, &sc.StartDate, &sc.EndDate, &sc.Calendar, &sc.Repeat, &annInt, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		sc.IsAnniversary = annInt != 0
		schedules = append(schedules, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachParticipants(schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (s *ScheduleStore) attachParticipants(schedules []model.Schedule) error {
	if len(schedules) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Schedule, len(schedules))
	placeholders := make([]string, 0, len(schedules))
	args := make([]any, 0, len(schedules))
	for i := range schedules {
		byID[schedules[i].ID] = &schedules[i]
		placeholders = append(placeholders, "?")
		args = append(args, schedules[i].ID)
	}

	rows, err := s.db.Query(
		`SELECT schedule_id, user_id FROM schedule_participants
		 WHERE schedule_id IN (`+strings.Join(placeholders, ", ")+`)
		 ORDER BY schedule_id, user_id`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var scheduleID, userID int64
		if err := rows.Scan(&scheduleID, &userID); err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		if sc, ok := byID[scheduleID]; ok {
			sc.Participants = append(sc.Participants, userID)
		}
	}
	return rows.Err()
}

func replaceParticipants(tx *sql.Tx, scheduleID int64, participants []int64) error {
	seen := make(map[int64]struct{}, len(participants))
	for _, userID := range participants {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		if _, err := tx.Exec(
			`INSERT INTO schedule_participants (schedule_id, user_id) VALUES (?, ?)`,
			scheduleID, userID,
		); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	return nil
}
