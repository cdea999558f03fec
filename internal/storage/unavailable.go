package storage

import "context"

// UnavailableStore stands in for a backend that is not configured.
// Every call fails with ErrUnavailable.
type UnavailableStore struct {
	name string
}

func NewUnavailableStore(name string) *UnavailableStore {
	return &UnavailableStore{name: name}
}

func (s *UnavailableStore) Name() string {
	return s.name
}

func (s *UnavailableStore) Get(context.Context, string) (string, error) {
	return "", ErrUnavailable
}

func (s *UnavailableStore) Set(context.Context, string, string) error {
	return ErrUnavailable
}
