package postgres // import "github.com/joincivil/civil-chainlist/pkg/persistence/postgres"

import (
	"fmt"
)

const (
	// VersionTableName is the name of the version table
	VersionTableName = "version"
)

// CreateVersionTableQuery returns the query to create the version table
func CreateVersionTableQuery(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s(
            version TEXT,
            service_name TEXT,
            last_updated_timestamp BIGINT,
            exist BOOLEAN,
            PRIMARY KEY(version, service_name)
        );
    `, tableName)
	return queryString
}

// Version is the model for the version table
type Version struct {
	Version           *string `db:"version"`
	ServiceName       string  `db:"service_name"`
	LastUpdatedDateTs int64   `db:"last_updated_timestamp"`
	Exists            bool    `db:"exist"`
}
