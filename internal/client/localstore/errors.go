package localstore

import "errors"

// ErrNotStaged is returned by StagePatch for records that are already synced.
var ErrNotStaged = errors.New("record is not awaiting sync")
