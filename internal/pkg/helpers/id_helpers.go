package helpers

import "github.com/google/uuid"

// IsValidID reports whether s is a well-formed entity id. Lookups with a
// malformed id are answered as not found instead of reaching the database.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
