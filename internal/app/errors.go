package app

import "errors"

// ErrUnauthenticated is returned when a protected section is requested
// without a stored credential. The controller has already navigated to the
// login entry point when this is returned.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrValidation marks local input rejections: empty queries, missing files,
// unsupported types. No network call was made.
var ErrValidation = errors.New("validation failed")
