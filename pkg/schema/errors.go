package schema

import "errors"

// ErrChangeFailed wraps a DDL failure on one tenant. It is recorded in the
// sweep report and retried on the next sweep.
var ErrChangeFailed = errors.New("schema change failed")
