package service

import (
	"errors"

	"papertalk-backend/repository"
)

// Sentinel errors returned by the services. Handlers map them to status codes;
// any other error is an internal failure.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
