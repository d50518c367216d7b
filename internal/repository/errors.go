package repository

import (
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a record does not exist in the write model.
var ErrNotFound = errors.New("record not found")
