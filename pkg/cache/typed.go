package cache

// GetTyped retrieves a cached value as type T. Returns the zero value and
// false if the key is missing, expired, or holds a different type.
func GetTyped[T any](s *Store, key string) (T, bool) {
	v, ok := s.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return typed, true
}

// PutTyped stores value under key.
func PutTyped[T any](s *Store, key string, value T) {
	s.Put(key, value)
}
