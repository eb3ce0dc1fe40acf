package service

import "errors"

var (
	// ErrStore matches every *StoreError via errors.Is.
	ErrStore = errors.New("store error")

	ErrOwnerRequired      = errors.New("owner id required")
	ErrMissingFields      = errors.New("username and password are required")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

// StoreError wraps a persistence failure. It is fatal to the request.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStore) true for any StoreError.
func (e *StoreError) Is(target error) bool { return target == ErrStore }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
