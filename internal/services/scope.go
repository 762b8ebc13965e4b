package services

// Scope proves that a user is a member of a workspace. It can only be
// obtained from WorkspaceService.Authorize; the zero value is rejected by
// every store.
type Scope struct {
	workspaceID string
	userID      string
	verified    bool
}

// WorkspaceID returns the workspace the scope grants access to.
func (s Scope) WorkspaceID() string {
	return s.workspaceID
}

// UserID returns the member the scope was issued to.
func (s Scope) UserID() string {
	return s.userID
}

// Valid reports whether the scope was minted by the directory.
func (s Scope) Valid() bool {
	return s.verified && s.workspaceID != "" && s.userID != ""
}

// Prefix is the object storage prefix owned by the workspace.
func (s Scope) Prefix() string {
	return s.workspaceID + "/"
}

func (s Scope) check() error {
	if !s.Valid() {
		return ErrWorkspaceNotFound
	}
	return nil
}

func newScope(workspaceID, userID string) Scope {
	return Scope{workspaceID: workspaceID, userID: userID, verified: true}
}
