package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

const recordSchemaVersionCurrent = 1

// ErrRecordCorrupt is returned when a persisted record cannot be decoded.
// Callers treat it as "no session" rather than failing startup.
var ErrRecordCorrupt = errors.New("session record corrupt")

// record is the persisted envelope. It holds exactly the three session
// fields — there is deliberately no token field to put a credential in.
type record struct {
	SchemaVersion int    `json:"v"`
	IsLoggedIn    bool   `json:"isLoggedIn"`
	User          *User  `json:"user"`
	Role          string `json:"role,omitempty"`
}

// Encode serializes the session as the current record schema.
func Encode(s Session) ([]byte, error) {
	return json.Marshal(record{
		SchemaVersion: recordSchemaVersionCurrent,
		IsLoggedIn:    s.IsLoggedIn,
		User:          s.User,
		Role:          s.Role,
	})
}

// Decode parses a persisted record and re-derives the session invariant from
// the user field. A record whose flags disagree with its user field is
// corrupt: trusting half of it would let a stale isLoggedIn or role leak
// into routing decisions.
func Decode(data []byte) (Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return loggedOut(), fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}

	if rec.SchemaVersion != recordSchemaVersionCurrent {
		return loggedOut(), fmt.Errorf("%w: unsupported session record schema version %d", ErrRecordCorrupt, rec.SchemaVersion)
	}

	if rec.User == nil {
		if rec.IsLoggedIn || rec.Role != "" {
			return loggedOut(), fmt.Errorf("%w: logged-out record carries session fields", ErrRecordCorrupt)
		}
		return loggedOut(), nil
	}

	if !rec.IsLoggedIn {
		return loggedOut(), fmt.Errorf("%w: user present on logged-out record", ErrRecordCorrupt)
	}
	if rec.Role != rec.User.Role {
		return loggedOut(), fmt.Errorf("%w: role field disagrees with user role", ErrRecordCorrupt)
	}

	u := *rec.User
	return Session{
		IsLoggedIn: true,
		User:       &u,
		Role:       u.Role,
	}, nil
}
