// Package schema declares the MongoDB collections and indexes the session store
// depends on and provisions them idempotently.
package schema

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// DatabaseName is the database holding both session collections.
	DatabaseName = "link_share"

	RefreshTokenSessions = "refresh_token_sessions"
	AccessTokenSessions  = "access_token_sessions"

	// ExpiryField is the timestamp field both TTL indexes are keyed on.
	ExpiryField = "exp"
)

var ErrInvalidLayout = errors.New("schema: invalid layout")

// Index is a single-field ascending index.
// ExpireAfter non-nil makes it a TTL index.
type Index struct {
	Name        string
	Field       string
	Unique      bool
	ExpireAfter *time.Duration
}

// Unique declares a unique index on field, named the way mongod names it by default.
func Unique(field string) Index {
	return Index{Name: field + "_1", Field: field, Unique: true}
}

// ExpireAfter declares a TTL index on field. d == 0 removes a document as soon as
// the stored timestamp is in the past.
func ExpireAfter(field string, d time.Duration) Index {
	return Index{Name: field + "_1", Field: field, ExpireAfter: &d}
}

// TTL reports whether the index expires documents.
func (i Index) TTL() bool { return i.ExpireAfter != nil }

// ExpireAfterSeconds returns the TTL threshold in whole seconds (0 for non-TTL indexes).
func (i Index) ExpireAfterSeconds() int32 {
	if i.ExpireAfter == nil {
		return 0
	}
	return int32(*i.ExpireAfter / time.Second)
}

func (i Index) String() string {
	s := fmt.Sprintf("%s {%s: 1}", i.Name, i.Field)
	if i.Unique {
		s += " unique"
	}
	if i.TTL() {
		s += fmt.Sprintf(" expireAfterSeconds=%d", i.ExpireAfterSeconds())
	}
	return s
}

type Collection struct {
	Name    string
	Indexes []Index
}

// Layout is the full declared state of one database.
type Layout struct {
	Database    string
	Collections []Collection
}

// Default returns the session store layout: a unique token index and a zero-grace TTL
// index on "exp" for both the refresh and access token collections.
func Default() Layout {
	return Layout{
		Database: DatabaseName,
		Collections: []Collection{
			{
				Name: RefreshTokenSessions,
				Indexes: []Index{
					Unique("refresh_token"),
					ExpireAfter(ExpiryField, 0),
				},
			},
			{
				Name: AccessTokenSessions,
				Indexes: []Index{
					Unique("access_token"),
					ExpireAfter(ExpiryField, 0),
				},
			},
		},
	}
}

// WithDatabase returns a copy of l targeting another database name.
func (l Layout) WithDatabase(name string) Layout {
	l.Database = name
	return l
}

// Collection looks up a declared collection by name.
func (l Layout) Collection(name string) (Collection, bool) {
	for _, c := range l.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return Collection{}, false
}

func (l Layout) Validate() error {
	if l.Database == "" {
		return fmt.Errorf("%w: empty database name", ErrInvalidLayout)
	}
	seen := map[string]bool{}
	for _, c := range l.Collections {
		if c.Name == "" {
			return fmt.Errorf("%w: empty collection name", ErrInvalidLayout)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate collection %q", ErrInvalidLayout, c.Name)
		}
		seen[c.Name] = true

		names := map[string]bool{}
		for _, idx := range c.Indexes {
			switch {
			case idx.Name == "" || idx.Field == "":
				return fmt.Errorf("%w: %s: index needs a name and a field", ErrInvalidLayout, c.Name)
			case names[idx.Name]:
				return fmt.Errorf("%w: %s: duplicate index %q", ErrInvalidLayout, c.Name, idx.Name)
			case idx.ExpireAfter != nil && *idx.ExpireAfter < 0:
				return fmt.Errorf("%w: %s.%s: negative TTL", ErrInvalidLayout, c.Name, idx.Name)
			case idx.ExpireAfter != nil && *idx.ExpireAfter/time.Second > math.MaxInt32:
				return fmt.Errorf("%w: %s.%s: TTL exceeds %d seconds", ErrInvalidLayout, c.Name, idx.Name, math.MaxInt32)
			}
			names[idx.Name] = true
		}
	}
	return nil
}
