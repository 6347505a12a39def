package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrParse indicates that a statement file is malformed. Parsing aborts on
// the first occurrence, there is no partial-record recovery.
var ErrParse = errors.New("statement parse error")

// ErrScript indicates that the rule script failed to compile or run. A
// broken script aborts the whole classification run.
var ErrScript = errors.New("rule script error")
