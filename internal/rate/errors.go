package rate

import "errors"

// ErrStoreUnavailable wraps redis failures on operations that cannot fail
// open, such as lockout bookkeeping.
var ErrStoreUnavailable = errors.New("rate: store unavailable")
