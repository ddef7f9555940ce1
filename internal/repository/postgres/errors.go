package postgres

import (
	"errors"

	"github.com/lib/pq"
)

const (
	uniqueViolation           = "23505"
	foreignKeyViolation       = "23503"
	invalidTextRepresentation = "22P02"
)

func hasCode(err error, code pq.ErrorCode) bool {
	var perr *pq.Error
	return errors.As(err, &perr) && perr.Code == code
}

// isMalformedKey reports whether Postgres rejected a key that is not a UUID.
// No row can match such a key, so callers treat it as a miss.
func isMalformedKey(err error) bool {
	return hasCode(err, invalidTextRepresentation)
}
