package store

import (
	"errors"
	"testing"

	"github.com/lovechedule/lovechedule/internal/database"
)

func setupWorkspaceTestDB(t *testing.T) (*WorkspaceStore, *UserStore, *PushStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWorkspaceStore(db), NewUserStore(db), NewPushStore(db)
}

func TestWorkspaceCreateEnrollsMaster(t *testing.T) {
	ws, us, _ := setupWorkspaceTestDB(t)

	master, err := us.Create("지민", "jimin@example.com")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	w, err := ws.Create("우리", master.ID)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	if w.InviteCode == "" {
		t.Error("invite code should be generated")
	}
	if w.MasterID != master.ID {
		t.Errorf("master_id = %d, want %d", w.MasterID, master.ID)
	}

	members, err := ws.Members(w.ID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 || members[0].ID != master.ID {
		t.Fatalf("members = %+v, want just the master", members)
	}
}

func TestWorkspaceJoinCap(t *testing.T) {
	ws, us, _ := setupWorkspaceTestDB(t)

	master, _ := us.Create("지민", "jimin@example.com")
	guest, _ := us.Create("하준", "hajun@example.com")
	third, _ := us.Create("서연", "seoyeon@example.com")

	w, err := ws.Create("우리", master.ID)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}

	if _, err := ws.Join(w.InviteCode, guest.ID); err != nil {
		t.Fatalf("guest join: %v", err)
	}
	if _, err := ws.Join(w.InviteCode, third.ID); !errors.Is(err, ErrWorkspaceFull) {
		t.Fatalf("third join err = %v, want ErrWorkspaceFull", err)
	}
	if _, err := ws.Join(w.InviteCode, guest.ID); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("rejoin err = %v, want ErrAlreadyMember", err)
	}

	members, err := ws.Members(w.ID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}
	if members[0].ID != master.ID {
		t.Errorf("first member = %d, want master %d", members[0].ID, master.ID)
	}
}

func TestWorkspaceJoinUnknownCode(t *testing.T) {
	ws, us, _ := setupWorkspaceTestDB(t)

	u, _ := us.Create("지민", "jimin@example.com")
	w, err := ws.Join("no-such-code", u.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if w != nil {
		t.Errorf("expected nil workspace for unknown code, got %+v", w)
	}
}

func TestWorkspacesForUser(t *testing.T) {
	ws, us, _ := setupWorkspaceTestDB(t)

	master, _ := us.Create("지민", "jimin@example.com")
	if _, err := ws.Create("우리", master.ID); err != nil {
		t.Fatalf("create workspace: %v", err)
	}

	got, err := ws.WorkspacesForUser(master.ID)
	if err != nil {
		t.Fatalf("workspaces for user: %v", err)
	}
	if len(got) != 1 || got[0].Name != "우리" {
		t.Fatalf("got %+v", got)
	}
}

func TestUserNotificationPrefs(t *testing.T) {
	_, us, _ := setupWorkspaceTestDB(t)

	u, err := us.Create("지민", "jimin@example.com")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !u.PushEnabled || !u.AnniversaryAlert {
		t.Fatalf("defaults should be on: %+v", u)
	}

	u, err = us.UpdateNotificationPrefs(u.ID, false, true)
	if err != nil {
		t.Fatalf("update prefs: %v", err)
	}
	if u.PushEnabled || !u.AnniversaryAlert {
		t.Errorf("prefs = push %v ann %v, want false true", u.PushEnabled, u.AnniversaryAlert)
	}

	byEmail, err := us.GetByEmail("jimin@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != u.ID {
		t.Fatalf("get by email returned %+v", byEmail)
	}
}

func TestPushSubscribeUpsert(t *testing.T) {
	_, us, ps := setupWorkspaceTestDB(t)

	u, _ := us.Create("지민", "jimin@example.com")

	first, err := ps.Subscribe(u.ID, "https://push.example.com/sub/1", "p256dh-a", "auth-a")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	second, err := ps.Subscribe(u.ID, "https://push.example.com/sub/1", "p256dh-b", "auth-b")
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("resubscribe created a new row: %d vs %d", second.ID, first.ID)
	}
	if second.P256dhKey != "p256dh-b" {
		t.Errorf("keys not rotated: %q", second.P256dhKey)
	}

	subs, err := ps.ListByUser(u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("subs = %d, want 1", len(subs))
	}

	if err := ps.DeleteByEndpoint("https://push.example.com/sub/1"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	subs, err = ps.ListByUser(u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("subs = %d after delete, want 0", len(subs))
	}
}
