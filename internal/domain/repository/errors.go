package repository

import "errors"

// Store-level sentinels. Implementations translate driver errors into
// these; the application layer maps them onto its own taxonomy.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("unique constraint violation")
)
