package database

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound wraps every lookup miss so handlers can answer 404.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate wraps unique violations so handlers can answer 409.
	ErrDuplicate = errors.New("duplicate record")
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
