// Package uid provides unique identifier generators.
package uid

// NumberID generates unique numeric identifiers.
type NumberID interface {
	// Generate returns a new unique int64 identifier.
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	// Generate returns a new unique string identifier.
	Generate() string
}
