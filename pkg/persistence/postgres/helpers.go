package postgres

import (
	"fmt"
)

// CheckTableCount returns the query to check the count of the table
func CheckTableCount(tableName string) string {
	queryString := fmt.Sprintf(`SELECT COUNT(*) FROM %v`, tableName) // nolint: gosec
	return queryString
}

// VersionedTableName returns the name of the table for the given version.
// An empty version returns the base name.
func VersionedTableName(baseName string, version string) string {
	if version == "" {
		return baseName
	}
	return fmt.Sprintf("%s_%s", baseName, version)
}
