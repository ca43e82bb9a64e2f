package types

import (
	"time"

	"github.com/google/uuid"
)

// NewBlockID generates a UUIDv7 block identifier.
// Time-ordered IDs keep blocks of one document clustered in the index.
// Panics on clock regression (uuid.Must).
func NewBlockID() BlockID {
	return BlockID(uuid.Must(uuid.NewV7()).String())
}

// NewTenantID generates a UUIDv7 tenant identifier.
func NewTenantID() TenantID {
	return TenantID(uuid.Must(uuid.NewV7()).String())
}

// NewRecordID generates a UUIDv7 identifier for audit and key rows.
func NewRecordID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParseBlockID validates and converts a string to BlockID.
func ParseBlockID(s string) (BlockID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return BlockID(s), nil
}

// BlockIDTime extracts the creation time embedded in a UUIDv7 block ID.
// Returns zero time for invalid UUIDs.
func BlockIDTime(id BlockID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
