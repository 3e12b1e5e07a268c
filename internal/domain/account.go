package domain

import (
	"fmt"
	"strings"
)

// Account is the closed set of user kinds: Listener or Musician.
// Call sites branch on it with a type switch.
type Account interface {
	AccountID() string
	DisplayName() string
	isAccount()
}

// Listener follows musicians, reviews gigs and looks for nearby performances.
type Listener struct {
	ID   string
	Name string
}

// Musician uploads covers and organizes gigs.
type Musician struct {
	ID    string
	Name  string
	Genre string
}

func (l Listener) AccountID() string   { return l.ID }
func (l Listener) DisplayName() string { return l.Name }
func (Listener) isAccount()            {}

func (m Musician) AccountID() string   { return m.ID }
func (m Musician) DisplayName() string { return m.Name }
func (Musician) isAccount()            {}

const (
	RoleListener = "user"
	RoleMusician = "musician"
)

// AccountFromRecord builds an Account from a stored record's role tag.
// It is the only place the role string is interpreted.
func AccountFromRecord(id, name, role, genre string) (Account, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleListener, "listener":
		return Listener{ID: id, Name: name}, nil
	case RoleMusician:
		return Musician{ID: id, Name: name, Genre: genre}, nil
	default:
		return nil, fmt.Errorf("account %q: unknown role %q", id, role)
	}
}

// RoleOf returns the stored role tag for an account.
func RoleOf(a Account) string {
	switch a.(type) {
	case Musician:
		return RoleMusician
	case Listener:
		return RoleListener
	default:
		return ""
	}
}
