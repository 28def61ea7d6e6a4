package postgres // import "github.com/joincivil/civil-chainlist/pkg/persistence/postgres"

import (
	"fmt"
)

const (
	// CronTableBaseName is the base name of the versioned cron table
	CronTableBaseName = "cron"
)

// CreateCronTableQuery returns the query to create this table
// NOTE: This table only is allowed to ever have 1 row
func CreateCronTableQuery(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s(timestamp BIGINT NOT NULL, event_hashes TEXT);
        CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s((timestamp IS NOT NULL));
    `, tableName, tableName+"_one_row", tableName)
	return queryString
}

// CronData contains all the information related to cronjob that needs to be persisted in cron DB.
type CronData struct {
	Timestamp int64 `db:"timestamp"`

	// comma separated hashes of the events seen at Timestamp
	EventHashes string `db:"event_hashes"`
}

// NewCron creates a CronData model for DB from a timestamp and hashes to save
func NewCron(timestamp int64, eventHashes []string) *CronData {
	return &CronData{
		Timestamp:   timestamp,
		EventHashes: ListStringToString(eventHashes),
	}
}
