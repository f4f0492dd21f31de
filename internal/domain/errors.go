package domain

import "errors"

// ErrNotFound is returned by lookups across storage layers when no record
// matches. It lives here so the importer can depend on it without importing
// the repository.
var ErrNotFound = errors.New("not found")
