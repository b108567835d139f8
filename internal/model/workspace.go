package model

import "time"

// Workspace is a two-member shared tenant (a couple). The creator is the
// master; the second member joins with the invite code.
type Workspace struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	MasterID   int64     `json:"master_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// MaxWorkspaceMembers caps a workspace at a couple.
const MaxWorkspaceMembers = 2
