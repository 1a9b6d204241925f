package goGate

import (
	"context"

	"github.com/MrEthical07/goGate/session"
)

// Identity is the authenticated dashboard user.
type Identity = session.Identity

// Membership links an [Identity] to a bar.
type Membership = session.Membership

// Role is a bar-level access role.
type Role = session.Role

const (
	RoleOwner   = session.RoleOwner
	RoleManager = session.RoleManager
	RoleStaff   = session.RoleStaff
	RoleViewer  = session.RoleViewer
)

// State is a point-in-time view of the session store.
//
// Hydrated is false until persisted state has been restored (or found absent).
// Token and User are either both set or both empty.
type State struct {
	Token    string
	User     *Identity
	Hydrated bool
}

// Authenticated reports whether the state carries a session.
func (s State) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

func (s State) clone() State {
	out := s
	if s.User != nil {
		u := s.User.Clone()
		out.User = &u
	}
	return out
}

// Persistence is the durable round-trip of a session record across restarts.
//
// Load returns [session.ErrRecordNotFound] when nothing is stored; any other error
// (corrupt, expired, unavailable) is treated as "no session" by the [Store].
// *session.Store implements Persistence.
type Persistence interface {
	Load(ctx context.Context) (session.Record, error)
	Save(ctx context.Context, rec session.Record) error
	Clear(ctx context.Context) error
}
