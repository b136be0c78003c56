package sentinel

// FieldConflict marks a uniqueness violation whose conflicting field is
// known, so the boundary can render a field-level message. It matches
// errors.Is(err, ErrConflict).
type FieldConflict struct {
	Field string
}

func (e *FieldConflict) Error() string { return e.Field + " is already in use" }

func (e *FieldConflict) Unwrap() error { return ErrConflict }
