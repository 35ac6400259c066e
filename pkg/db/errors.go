package db

import "strings"

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation constraint. When constraintName is provided, the helper looks
// for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}

// IsCapacityGuardViolation reports whether the error came from the
// allocation capacity trigger installed by migrations.
func IsCapacityGuardViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "allocation_capacity_guard")
}
