package util

// Ptr returns a pointer to a copy of v. Configs use it for optional fields
// whose zero value is meaningful, such as a bool that defaults to true.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p, or the zero value if p is nil.
func Deref[T any](p *T) T {
	return DerefOr(p, *new(T))
}

// DerefOr returns *p, or def if p is nil.
func DerefOr[T any](p *T, def T) T {
	if p != nil {
		return *p
	}
	return def
}

// Coalesce returns the first non-zero value, or the zero value if all are zero.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
