// Package domain contains the core business types for Salescope.
// It has no dependencies on adapters or infrastructure; services and
// adapters depend on it, never the other way around.
package domain
