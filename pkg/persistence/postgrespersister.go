// Package persistence contains components to interact with the DB
package persistence // import "github.com/joincivil/civil-chainlist/pkg/persistence"

import (
	"bytes"
	"database/sql"
	"fmt"
	"strings"
	"time"

	log "github.com/golang/glog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/joincivil/civil-chainlist/pkg/model"
	"github.com/joincivil/civil-chainlist/pkg/persistence/postgres"
	"github.com/joincivil/civil-chainlist/pkg/utils"
)

const (
	// ProcessorServiceName is the name of the processor service in the version table
	ProcessorServiceName = "processor"

	defaultMaxOpenConns     = 20
	defaultMaxIdleConns     = 5
	defaultConnLifetimeSecs = 1800
)

// NewPostgresPersister creates a new postgres persister
func NewPostgresPersister(host string, port int, user string, password string,
	dbname string) (*PostgresPersister, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
	db, err := sqlx.Connect("postgres", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("Error connecting to sqlx: %v", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(time.Second * defaultConnLifetimeSecs)
	return NewPostgresPersisterFromSqlx(db)
}

// NewPostgresPersisterFromSqlx creates a new postgres persister from an
// initialized sqlx.DB
func NewPostgresPersisterFromSqlx(db *sqlx.DB) (*PostgresPersister, error) {
	return &PostgresPersister{db: db}, nil
}

// PostgresPersister holds the DB connection and persistence
type PostgresPersister struct {
	db      *sqlx.DB
	version *string
}

// Close closes the DB connection
func (p *PostgresPersister) Close() error {
	return p.db.Close()
}

// InitProcessorVersion saves the version to the version table and sets it as
// the version for the versioned tables. If version is nil or empty, tables are
// not versioned.
func (p *PostgresPersister) InitProcessorVersion(version *string) error {
	_, err := p.db.Exec(postgres.CreateVersionTableQuery(postgres.VersionTableName))
	if err != nil {
		return fmt.Errorf("Error creating version table in postgres: %v", err)
	}
	if version == nil || *version == "" {
		p.version = nil
		return nil
	}
	dbVersion := &postgres.Version{
		Version:           version,
		ServiceName:       ProcessorServiceName,
		LastUpdatedDateTs: utils.CurrentEpochSecsInInt64(),
		Exists:            true,
	}
	queryString := fmt.Sprintf(`INSERT INTO %s (version, service_name, last_updated_timestamp, exist)
        VALUES (:version, :service_name, :last_updated_timestamp, :exist)
        ON CONFLICT (version, service_name)
        DO UPDATE SET last_updated_timestamp = :last_updated_timestamp, exist = :exist;`,
		postgres.VersionTableName) // nolint: gosec
	_, err = p.db.NamedExec(queryString, dbVersion)
	if err != nil {
		return fmt.Errorf("Error saving version to table: %v", err)
	}
	p.version = version
	return nil
}

// OldVersions returns all versions of the service except the most recent one
// that still have tables
func (p *PostgresPersister) OldVersions(serviceName string) ([]string, error) {
	versions := []string{}
	queryString := fmt.Sprintf(`SELECT version FROM %s WHERE service_name=$1 AND exist=true
        AND version != (SELECT version FROM %s WHERE service_name=$1
        ORDER BY last_updated_timestamp DESC LIMIT 1);`,
		postgres.VersionTableName, postgres.VersionTableName) // nolint: gosec
	err := p.db.Select(&versions, queryString, serviceName)
	if err != nil {
		return nil, fmt.Errorf("Error retrieving old versions: %v", err)
	}
	return versions, nil
}

// DropTable drops the table with the given name
func (p *PostgresPersister) DropTable(tableName string) error {
	_, err := p.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s;", tableName)) // nolint: gosec
	if err != nil {
		return fmt.Errorf("Error dropping table %v: %v", tableName, err)
	}
	return nil
}

// UpdateExistenceFalseForVersionTable marks the tables of the version as dropped
func (p *PostgresPersister) UpdateExistenceFalseForVersionTable(tableName string, version string,
	serviceName string) error {
	queryString := fmt.Sprintf(`UPDATE %s SET exist=false WHERE version=$1 AND service_name=$2;`,
		tableName) // nolint: gosec
	_, err := p.db.Exec(queryString, version, serviceName)
	if err != nil {
		return fmt.Errorf("Error updating version table: %v", err)
	}
	return nil
}

// CreateTables creates the tables for processor if they don't exist
func (p *PostgresPersister) CreateTables() error {
	tableQueries := []string{
		postgres.CreateArticleEventTableQuery(postgres.ArticleEventTableName),
		postgres.CreateArticleListingTableQuery(p.listingTableName()),
		postgres.CreateCronTableQuery(p.cronTableName()),
	}
	for _, query := range tableQueries {
		_, err := p.db.Exec(query)
		if err != nil {
			return fmt.Errorf("Error creating tables in postgres: %v", err)
		}
	}
	return nil
}

// CreateIndices creates the indices for the tables if they don't exist
func (p *PostgresPersister) CreateIndices() error {
	indexQueries := []string{
		postgres.CreateArticleEventTableIndicesQuery(postgres.ArticleEventTableName),
		postgres.CreateArticleListingTableIndicesQuery(p.listingTableName()),
	}
	for _, query := range indexQueries {
		_, err := p.db.Exec(query)
		if err != nil {
			return fmt.Errorf("Error creating indices in postgres: %v", err)
		}
	}
	return nil
}

// ArticleListingsByCriteria returns a slice of ArticleListings by criteria,
// ordered by article id
func (p *PostgresPersister) ArticleListingsByCriteria(criteria *model.ArticleListingCriteria) (
	[]*model.ArticleListing, error) {
	queryString, args := p.articleListingsByCriteriaQuery(criteria, p.listingTableName())
	query, queryArgs, err := p.db.BindNamed(queryString, args)
	if err != nil {
		return nil, fmt.Errorf("Error binding listing criteria: %v", err)
	}
	dbListings := []postgres.ArticleListing{}
	err = p.db.Select(&dbListings, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("Error retrieving listings from table: %v", err)
	}
	listings := make([]*model.ArticleListing, 0, len(dbListings))
	for _, dbListing := range dbListings {
		listing, err := dbListing.DbToArticleListingData()
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// ArticleListingByID retrieves the listing for the ledger article id
func (p *PostgresPersister) ArticleListingByID(articleID uint64) (*model.ArticleListing, error) {
	fieldNames, _ := postgres.GetAllStructFieldsForQuery(postgres.ArticleListing{}, false)
	queryString := fmt.Sprintf(`SELECT %s FROM %s WHERE article_id=$1;`, fieldNames,
		p.listingTableName()) // nolint: gosec
	dbListing := postgres.ArticleListing{}
	err := p.db.Get(&dbListing, queryString, int64(articleID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrPersisterNoResults
		}
		return nil, fmt.Errorf("Wasn't able to get listing from postgres table: %v", err)
	}
	return dbListing.DbToArticleListingData()
}

// CreateArticleListing creates a new listing
func (p *PostgresPersister) CreateArticleListing(listing *model.ArticleListing) error {
	fieldNames, fieldNamesColon := postgres.GetAllStructFieldsForQuery(postgres.ArticleListing{}, true)
	queryString := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s);`, p.listingTableName(), fieldNames,
		fieldNamesColon) // nolint: gosec
	_, err := p.db.NamedExec(queryString, postgres.NewArticleListing(listing))
	if err != nil {
		return fmt.Errorf("Error saving listing to table: %v", err)
	}
	return nil
}

// UpdateArticleListing updates the given fields on an existing listing
func (p *PostgresPersister) UpdateArticleListing(listing *model.ArticleListing,
	updatedFields []string) error {
	queryString, err := p.updateDBQueryBuffer(updatedFields, p.listingTableName(),
		postgres.ArticleListing{})
	if err != nil {
		return err
	}
	queryString.WriteString(" WHERE article_id=:article_id;") // nolint: gosec
	result, err := p.db.NamedExec(queryString.String(), postgres.NewArticleListing(listing))
	if err != nil {
		return fmt.Errorf("Error updating fields in db: %v", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("Error checking updated rows: %v", err)
	}
	if rows == 0 {
		return model.ErrPersisterNoResults
	}
	return nil
}

// DeleteArticleListing removes a listing
func (p *PostgresPersister) DeleteArticleListing(listing *model.ArticleListing) error {
	queryString := fmt.Sprintf(`DELETE FROM %s WHERE article_id=$1;`, p.listingTableName()) // nolint: gosec
	_, err := p.db.Exec(queryString, int64(listing.ArticleID()))
	if err != nil {
		return fmt.Errorf("Error deleting listing in db: %v", err)
	}
	return nil
}

// SaveEvents saves the events, ignoring events already saved. Returns the
// errors for each event that failed.
func (p *PostgresPersister) SaveEvents(events []*model.ArticleEvent) []error {
	fieldNames, fieldNamesColon := postgres.GetAllStructFieldsForQuery(postgres.ArticleEvent{}, true)
	queryString := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (event_hash) DO NOTHING;`,
		postgres.ArticleEventTableName, fieldNames, fieldNamesColon) // nolint: gosec
	errs := []error{}
	for _, event := range events {
		_, err := p.db.NamedExec(queryString, postgres.NewArticleEvent(event))
		if err != nil {
			errs = append(errs, fmt.Errorf("Error saving event %v: %v", event.Hash(), err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// RetrieveEvents retrieves events by criteria, ordered by timestamp then sequence
func (p *PostgresPersister) RetrieveEvents(criteria *model.RetrieveEventsCriteria) (
	[]*model.ArticleEvent, error) {
	queryString, args := p.retrieveEventsQuery(criteria, postgres.ArticleEventTableName)
	dbEvents := []postgres.ArticleEvent{}
	err := p.db.Select(&dbEvents, queryString, args...)
	if err != nil {
		return nil, fmt.Errorf("Error retrieving events from table: %v", err)
	}
	events := make([]*model.ArticleEvent, 0, len(dbEvents))
	for _, dbEvent := range dbEvents {
		event, err := dbEvent.DbToArticleEventData()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// TimestampOfLastEventForCron returns the timestamp for the last event seen by the processor
func (p *PostgresPersister) TimestampOfLastEventForCron() (int64, error) {
	cronData, err := p.cronData()
	if err != nil {
		return 0, err
	}
	return cronData.Timestamp, nil
}

// UpdateTimestampForCron updates the timestamp of the last event seen by the processor
func (p *PostgresPersister) UpdateTimestampForCron(timestamp int64) error {
	return p.upsertCronField("timestamp", &postgres.CronData{Timestamp: timestamp})
}

// EventHashesOfLastTimestampForCron returns the event hashes processed for the last timestamp from cron
func (p *PostgresPersister) EventHashesOfLastTimestampForCron() ([]string, error) {
	cronData, err := p.cronData()
	if err != nil {
		return nil, err
	}
	return postgres.StringToListString(cronData.EventHashes), nil
}

// UpdateEventHashesForCron updates the eventHashes saved in cron table
func (p *PostgresPersister) UpdateEventHashesForCron(eventHashes []string) error {
	return p.upsertCronField("event_hashes", postgres.NewCron(0, eventHashes))
}

func (p *PostgresPersister) cronData() (*postgres.CronData, error) {
	queryString := fmt.Sprintf(`SELECT timestamp, COALESCE(event_hashes, '') AS event_hashes FROM %s;`,
		p.cronTableName()) // nolint: gosec
	cronData := &postgres.CronData{}
	err := p.db.Get(cronData, queryString)
	if err != nil {
		if err == sql.ErrNoRows {
			// Nothing seen yet
			return cronData, nil
		}
		return nil, fmt.Errorf("Wasn't able to get cron data from postgres table: %v", err)
	}
	return cronData, nil
}

// upsertCronField updates the field on the single cron row, inserting the row
// if it does not exist yet
func (p *PostgresPersister) upsertCronField(fieldName string, cronData *postgres.CronData) error {
	updateString := fmt.Sprintf(`UPDATE %s SET %s=:%s;`, p.cronTableName(), fieldName,
		fieldName) // nolint: gosec
	result, err := p.db.NamedExec(updateString, cronData)
	if err != nil {
		return fmt.Errorf("Error updating cron %v: %v", fieldName, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("Error checking cron rows: %v", err)
	}
	if rows > 0 {
		return nil
	}
	insertString := fmt.Sprintf(`INSERT INTO %s (timestamp, event_hashes) VALUES (:timestamp, :event_hashes);`,
		p.cronTableName()) // nolint: gosec
	_, err = p.db.NamedExec(insertString, cronData)
	if err != nil {
		return fmt.Errorf("Error inserting cron row: %v", err)
	}
	return nil
}

func (p *PostgresPersister) updateDBQueryBuffer(updatedFields []string, tableName string,
	dbModelStruct interface{}) (bytes.Buffer, error) {
	var queryBuf bytes.Buffer
	if len(updatedFields) == 0 {
		return queryBuf, fmt.Errorf("No fields to update")
	}
	queryBuf.WriteString("UPDATE ") // nolint: gosec
	queryBuf.WriteString(tableName) // nolint: gosec
	queryBuf.WriteString(" SET ")   // nolint: gosec
	for idx, field := range updatedFields {
		dbFieldName, err := postgres.DbFieldNameFromModelName(dbModelStruct, field)
		if err != nil {
			return queryBuf, fmt.Errorf("Error getting %s from %s table DB struct tag: %v", field, tableName, err)
		}
		queryBuf.WriteString(fmt.Sprintf("%s=:%s", dbFieldName, dbFieldName)) // nolint: gosec
		if idx+1 < len(updatedFields) {
			queryBuf.WriteString(", ") // nolint: gosec
		}
	}
	return queryBuf, nil
}

func (p *PostgresPersister) articleListingsByCriteriaQuery(criteria *model.ArticleListingCriteria,
	tableName string) (string, map[string]interface{}) {
	fieldNames, _ := postgres.GetAllStructFieldsForQuery(postgres.ArticleListing{}, false)
	args := map[string]interface{}{}
	conditions := []string{}
	if criteria.ForSale {
		conditions = append(conditions, "buyer = ''")
	} else if criteria.Sold {
		conditions = append(conditions, "buyer != ''")
	}
	if criteria.Seller != (common.Address{}) {
		conditions = append(conditions, "seller = :seller")
		args["seller"] = criteria.Seller.Hex()
	}
	if criteria.ListedFromTs > 0 {
		conditions = append(conditions, "listed_timestamp >= :listed_fromts")
		args["listed_fromts"] = criteria.ListedFromTs
	}

	var queryBuf bytes.Buffer
	queryBuf.WriteString(fmt.Sprintf("SELECT %s FROM %s", fieldNames, tableName)) // nolint: gosec
	if len(conditions) > 0 {
		queryBuf.WriteString(" WHERE ")                         // nolint: gosec
		queryBuf.WriteString(strings.Join(conditions, " AND ")) // nolint: gosec
	}
	queryBuf.WriteString(" ORDER BY article_id") // nolint: gosec
	if criteria.Offset > 0 {
		queryBuf.WriteString(" OFFSET :offset") // nolint: gosec
		args["offset"] = criteria.Offset
	}
	if criteria.Count > 0 {
		queryBuf.WriteString(" LIMIT :count") // nolint: gosec
		args["count"] = criteria.Count
	}
	queryBuf.WriteString(";") // nolint: gosec
	return queryBuf.String(), args
}

func (p *PostgresPersister) retrieveEventsQuery(criteria *model.RetrieveEventsCriteria,
	tableName string) (string, []interface{}) {
	fieldNames, _ := postgres.GetAllStructFieldsForQuery(postgres.ArticleEvent{}, false)
	args := []interface{}{criteria.FromTs}
	var queryBuf bytes.Buffer
	queryBuf.WriteString(fmt.Sprintf("SELECT %s FROM %s WHERE timestamp >= $1", fieldNames, tableName)) // nolint: gosec
	if criteria.BeforeTs > 0 {
		args = append(args, criteria.BeforeTs)
		queryBuf.WriteString(fmt.Sprintf(" AND timestamp < $%d", len(args))) // nolint: gosec
	}
	if len(criteria.ExcludeHashes) > 0 {
		args = append(args, pq.Array(criteria.ExcludeHashes))
		queryBuf.WriteString(fmt.Sprintf(" AND NOT (event_hash = ANY($%d))", len(args))) // nolint: gosec
	}
	queryBuf.WriteString(" ORDER BY timestamp, sequence") // nolint: gosec
	if criteria.Offset > 0 {
		args = append(args, criteria.Offset)
		queryBuf.WriteString(fmt.Sprintf(" OFFSET $%d", len(args))) // nolint: gosec
	}
	if criteria.Count > 0 {
		args = append(args, criteria.Count)
		queryBuf.WriteString(fmt.Sprintf(" LIMIT $%d", len(args))) // nolint: gosec
	}
	queryBuf.WriteString(";") // nolint: gosec
	log.V(2).Infof("Retrieve events query: %v", queryBuf.String())
	return queryBuf.String(), args
}

func (p *PostgresPersister) listingTableName() string {
	return postgres.VersionedTableName(postgres.ArticleListingTableBaseName, p.versionString())
}

func (p *PostgresPersister) cronTableName() string {
	return postgres.VersionedTableName(postgres.CronTableBaseName, p.versionString())
}

func (p *PostgresPersister) versionString() string {
	if p.version == nil {
		return ""
	}
	return *p.version
}
