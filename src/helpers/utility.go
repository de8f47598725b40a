package helpers

import (
	"github.com/google/uuid"
)

// GenerateUUID returns a fresh random identifier. Used for connection
// ids on the RPC server.
func GenerateUUID() string {
	return uuid.New().String()
}
