package verify

import "github.com/google/uuid"

// parseUserID parses the session user id, tolerating the empty string
// a never-reconciled session carries.
func parseUserID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}
