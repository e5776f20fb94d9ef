package notification

import "errors"

// ErrUnknownTarget is returned for reminders addressed to neither role.
var ErrUnknownTarget = errors.New("unknown reminder target")
