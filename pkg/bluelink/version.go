package bluelink

import "strings"

// Version returns the library version embedded at build time.
func Version() string {
	return strings.TrimSpace(libraryVersion)
}
