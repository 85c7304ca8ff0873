package cache

import "time"

// noopStore implements Store but persists nothing: Get always misses.
type noopStore struct{}

// NoopStore returns a Store that disables persistence of resolved payloads.
// The in-memory entries of a ResourceCache are unaffected.
func NoopStore() Store { return noopStore{} }

func (noopStore) Get(string, any) (bool, error) { return false, nil }
func (noopStore) Set(string, any, time.Duration) error { return nil }
func (noopStore) Delete(string) error { return nil }
func (noopStore) Clear(string) error { return nil }
