// Package utils holds helpers for the optional fields on sessions and DTOs.
package utils

// Value dereferences v, yielding the zero value when v is nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Ptr returns a pointer to a copy of v, for filling optional fields inline.
func Ptr[T any](v T) *T {
	return &v
}
