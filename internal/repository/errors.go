// Package repository contains the MySQL implementations of the stores used
// by the reservation service, along with the sentinel errors every store
// (including the in-memory one) returns.  Higher layers translate these
// sentinels into apperr kinds exactly once.
package repository

import (
	"errors"

	"github.com/iliyamo/table-reservation/internal/database"
)

// ErrNotFound is returned when a lookup by id, email or reservation finds
// no row.  The service translates it into a NotFound error naming the
// resource.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned when an update is attempted with a stale
// version, i.e. another writer modified the row after it was read.  The
// service translates it into a Conflict.
var ErrVersionConflict = errors.New("version conflict")

// ErrEmailExists is returned when a user is created with an email that is
// already registered.
var ErrEmailExists = errors.New("email already exists")

func isDuplicate(err error) bool { return database.IsDuplicateKey(err) }
