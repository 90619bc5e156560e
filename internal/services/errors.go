package services

import "errors"

// ErrValidation marks input errors that map to a 400 at the boundary.
// Specific messages wrap it with %w.
var ErrValidation = errors.New("validation failed")

// ErrTargetUserNotFound is returned by share/copy when the target email
// does not resolve to a user. The document is left untouched.
var ErrTargetUserNotFound = errors.New("target user not found")
