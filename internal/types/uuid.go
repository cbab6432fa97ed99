package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex pst_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_PROGRESS_STATE       = "pst"
	UUID_PREFIX_PROGRESS_LINE_ITEM   = "pst_line"
	UUID_PREFIX_PROGRESS_CHANGE_ITEM = "pst_co"
	UUID_PREFIX_SCOPE                = "scope"
	UUID_PREFIX_SCOPE_LINE           = "scope_line"
)
