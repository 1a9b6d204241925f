package session

import (
	"errors"
	"strings"
)

// Role is the access level a user holds inside one bar.
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
	RoleViewer  Role = "VIEWER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleStaff, RoleViewer:
		return true
	default:
		return false
	}
}

// Membership links an identity to a bar it can administer.
type Membership struct {
	BarID   string `json:"barId"`
	BarName string `json:"barName"`
	Role    Role   `json:"role"`
	Active  bool   `json:"active"`
}

// Identity is the authenticated user as returned by the login endpoint.
type Identity struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	DisplayName  string       `json:"name"`
	IsPrivileged bool         `json:"isSuperAdmin"`
	Memberships  []Membership `json:"bars"`
}

// Clone returns a deep copy so callers cannot alias membership slices.
func (i Identity) Clone() Identity {
	out := i
	if i.Memberships != nil {
		out.Memberships = make([]Membership, len(i.Memberships))
		copy(out.Memberships, i.Memberships)
	}
	return out
}

// Membership returns the membership for barID, if any.
func (i Identity) Membership(barID string) (Membership, bool) {
	for _, m := range i.Memberships {
		if m.BarID == barID {
			return m, true
		}
	}
	return Membership{}, false
}

// Validate checks the fields required for an identity to back a session.
func (i Identity) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return errors.New("identity id is empty")
	}
	for _, m := range i.Memberships {
		if strings.TrimSpace(m.BarID) == "" {
			return errors.New("membership bar id is empty")
		}
		if !m.Role.Valid() {
			return errors.New("membership role is invalid: " + string(m.Role))
		}
	}
	return nil
}

// Record is the persisted session: a token and the identity it authorizes.
//
// Token and User are set and cleared together. A Record with only one of them
// is malformed.
type Record struct {
	Token string    `json:"token"`
	User  *Identity `json:"user"`
}

// Empty reports whether the record carries no session at all.
func (r Record) Empty() bool {
	return r.Token == "" && r.User == nil
}

// Validate enforces the pairing invariant and identity constraints.
func (r Record) Validate() error {
	if r.Empty() {
		return nil
	}
	if r.Token == "" {
		return errors.New("record has user without token")
	}
	if r.User == nil {
		return errors.New("record has token without user")
	}
	return r.User.Validate()
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := Record{Token: r.Token}
	if r.User != nil {
		u := r.User.Clone()
		out.User = &u
	}
	return out
}
