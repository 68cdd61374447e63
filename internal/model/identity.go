package model

// Identity is the authenticated caller, resolved from the session by
// middleware and handed explicitly to every operation that needs it.
type Identity struct {
	UserID      uint64 `json:"userId"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	HasLoggedIn bool   `json:"hasLoggedIn"`
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// CanUpdate reports whether the caller may modify the user with targetID.
// Administrators may update anyone; everybody else only themselves.
func (i Identity) CanUpdate(targetID uint64) bool {
	if i.UserID == 0 {
		return false
	}
	return i.IsAdmin() || i.UserID == targetID
}
