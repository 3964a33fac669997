package domain

import "errors"

// ErrValidation marks invariant violations raised by aggregate constructors
// and mutators. Callers match it with errors.Is; the wrapped message names
// the offending field or rule.
var ErrValidation = errors.New("domain: validation failed")
