package langx

// Clone applies the options to a copy of the provided value.
func Clone[T any](v T, options ...func(*T)) T {
	dup := v
	for _, opt := range options {
		opt(&dup)
	}

	return dup
}
