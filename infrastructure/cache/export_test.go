package cache

import "time"

// SetNow overrides the store clock for staleness tests.
func (s *Store) SetNow(now func() time.Time) { s.now = now }
