package session

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	recordFormatVersionCurrent = 1
	recordFormatVersionLegacy  = 0
)

// CurrentFormatVersion is the envelope version written by [Encode].
const CurrentFormatVersion = recordFormatVersionCurrent

type envelope struct {
	State   json.RawMessage `json:"state"`
	Version *int            `json:"version"`
}

type envelopeOut struct {
	State   Record `json:"state"`
	Version int    `json:"version"`
}

// legacy (version 0) layout written by the first dashboard releases: bars carry
// id/name and no active flag, and an isAuthenticated flag duplicates the token.
type legacyState struct {
	Token           string      `json:"token"`
	User            *legacyUser `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
}

type legacyUser struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	IsSuperAdmin bool        `json:"isSuperAdmin"`
	Bars         []legacyBar `json:"bars"`
}

type legacyBar struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Encode serializes r into the current envelope format.
func Encode(r Record) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordInvalid, err)
	}
	return json.Marshal(envelopeOut{State: r, Version: recordFormatVersionCurrent})
}

// Decode parses an envelope produced by [Encode] or by the legacy dashboard.
//
// Decode returns [ErrRecordNotFound] for an envelope without a session and
// [ErrRecordCorrupt] for anything it cannot fully trust.
func Decode(data []byte) (Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Record{}, ErrRecordNotFound
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if env.Version == nil {
		return Record{}, fmt.Errorf("%w: missing version", ErrRecordCorrupt)
	}
	if len(env.State) == 0 || bytes.Equal(env.State, []byte("null")) {
		return Record{}, ErrRecordNotFound
	}

	var (
		rec Record
		err error
	)
	switch *env.Version {
	case recordFormatVersionCurrent:
		err = json.Unmarshal(env.State, &rec)
	case recordFormatVersionLegacy:
		rec, err = decodeLegacy(env.State)
	default:
		return Record{}, fmt.Errorf("%w: unsupported version %d", ErrRecordCorrupt, *env.Version)
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}

	if rec.Empty() {
		return Record{}, ErrRecordNotFound
	}
	if err := rec.Validate(); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}

	return rec, nil
}

func decodeLegacy(raw json.RawMessage) (Record, error) {
	var st legacyState
	if err := json.Unmarshal(raw, &st); err != nil {
		return Record{}, err
	}

	rec := Record{Token: st.Token}
	if st.User != nil {
		u := Identity{
			ID:           st.User.ID,
			Email:        st.User.Email,
			DisplayName:  st.User.Name,
			IsPrivileged: st.User.IsSuperAdmin,
		}
		for _, b := range st.User.Bars {
			u.Memberships = append(u.Memberships, Membership{
				BarID:   b.ID,
				BarName: b.Name,
				Role:    b.Role,
				Active:  true,
			})
		}
		rec.User = &u
	}
	return rec, nil
}
