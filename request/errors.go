package request

import "errors"

// ErrUnknownPolicy indicates a fetch policy name outside the known set.
var ErrUnknownPolicy = errors.New("request: unknown fetch policy")
