// Package id provides unique identifier generation for jobs.
package id

import "github.com/google/uuid"

// Generate creates a new opaque job ID (random UUID, version 4).
// Example: 3f1c9a8e-2b7d-4c1e-9f4a-6d2e8b0c5a71
func Generate() string {
	return uuid.NewString()
}
