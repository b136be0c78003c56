package sentinel

import "errors"

// Storage-level sentinels. Stores wrap these around driver errors; the
// service layer is the only place that turns them into coded domain errors,
// so SQL details never leak past a store boundary.
//
// They name facts about a row, not bad input:
// - ErrNotFound: no row for the given key
// - ErrConflict: a uniqueness constraint rejected the write
// - ErrAlreadyDone: the guarded side effect was applied by an earlier writer
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyDone  = errors.New("already done")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
