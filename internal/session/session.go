// Package session tracks per-vendor analytics sessions.
//
// A session belongs to one vendor type. It expires after MaxAge without
// access; the next access then starts a new session with a fresh id and an
// incremented count. Every access refreshes the last-access time and writes
// the session through to Storage.
package session

import (
	"context"
	"errors"
	"time"
)

// MaxAge is how long a session survives without being accessed.
const MaxAge = 30 * time.Minute

// ErrNoVendor is returned when a session is requested without a vendor type.
var ErrNoVendor = errors.New("sessions can only be accessed with a vendor type")

// Session is the persisted state of one vendor's session.
// Timestamps are Unix milliseconds.
type Session struct {
	ID                  string `json:"sessionId"`
	CreationTimestamp   int64  `json:"creationTimestamp"`
	LastAccessTimestamp int64  `json:"lastAccessTimestamp"`
	Count               int    `json:"count"`
}

// Expired reports whether the session was last accessed more than MaxAge
// before now.
func (s Session) Expired(now time.Time) bool {
	return s.LastAccessTimestamp+MaxAge.Milliseconds() < now.UnixMilli()
}

// Storage persists sessions keyed by vendor type.
//
// LoadSession reports found=false, with a nil error, when no session has
// been stored for the vendor.
type Storage interface {
	LoadSession(ctx context.Context, vendor string) (s Session, found bool, err error)
	SaveSession(ctx context.Context, vendor string, s Session) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
