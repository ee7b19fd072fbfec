package session

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Role is the authorization class of the signed-in identity. Customer
// logins always get RoleClient; staff logins carry whatever role the
// backend returns, so the set is open beyond these.
type Role string

const (
	RoleClient  Role = "client"
	RoleManager Role = "gerant"
)

// Credentials is what a successful login returns: the bearer token, the
// role, and the raw identity record exactly as the backend sent it.
type Credentials struct {
	Token    string
	Role     Role
	Identity json.RawMessage
}

// Session is the authenticated identity active on the device. Token, Role
// and Identity are set or cleared as a unit; a Session is replaced
// wholesale, never mutated.
type Session struct {
	Token    string
	Role     Role
	Identity json.RawMessage
}

// IdentityID extracts the identity's id field. json.Number keeps numeric
// ids intact through re-encoding.
func (s *Session) IdentityID() (json.Number, error) {
	var identity struct {
		ID json.Number `json:"id"`
	}

	dec := json.NewDecoder(bytes.NewReader(s.Identity))
	dec.UseNumber()
	if err := dec.Decode(&identity); err != nil {
		return "", errors.Wrap(err, "failed to decode identity")
	}
	if identity.ID == "" {
		return "", errors.New("identity has no id")
	}

	return identity.ID, nil
}
