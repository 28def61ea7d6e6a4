package postgres // import "github.com/joincivil/civil-chainlist/pkg/persistence/postgres"

import (
	"fmt"
	"math/big"

	"github.com/joincivil/civil-chainlist/pkg/model"
)

const (
	// ArticleEventTableName is the name of the article event table. It is not
	// versioned, the events are the source data for every processor version.
	ArticleEventTableName = "article_event"
)

// CreateArticleEventTableQuery returns the query to create the article event table
func CreateArticleEventTableQuery(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s(
            event_hash TEXT PRIMARY KEY,
            event_type TEXT,
            article_id BIGINT,
            seller TEXT,
            buyer TEXT,
            name TEXT,
            price NUMERIC,
            timestamp BIGINT,
            sequence BIGINT
        );
    `, tableName)
	return queryString
}

// CreateArticleEventTableIndicesQuery returns the query to create the indices
// for the article event table
func CreateArticleEventTableIndicesQuery(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE INDEX IF NOT EXISTS %s_ts_seq_idx ON %s (timestamp, sequence);
    `, tableName, tableName)
	return queryString
}

// ArticleEvent is the model definition for the article event table
type ArticleEvent struct {
	EventHash string `db:"event_hash"`

	EventType string `db:"event_type"`

	ArticleID int64 `db:"article_id"`

	Seller string `db:"seller"`

	Buyer string `db:"buyer"`

	Name string `db:"name"`

	Price string `db:"price"`

	Timestamp int64 `db:"timestamp"`

	Sequence int64 `db:"sequence"`
}

// NewArticleEvent constructs an article event for the DB from a model.ArticleEvent
func NewArticleEvent(event *model.ArticleEvent) *ArticleEvent {
	return &ArticleEvent{
		EventHash: event.Hash(),
		EventType: event.EventType(),
		ArticleID: int64(event.ArticleID()),
		Seller:    AddressToString(event.Seller()),
		Buyer:     AddressToString(event.Buyer()),
		Name:      event.Name(),
		Price:     event.Price().String(),
		Timestamp: event.Timestamp(),
		Sequence:  int64(event.Sequence()),
	}
}

// DbToArticleEventData creates a model.ArticleEvent from the postgres ArticleEvent
func (a *ArticleEvent) DbToArticleEventData() (*model.ArticleEvent, error) {
	price, ok := new(big.Int).SetString(a.Price, 10)
	if !ok {
		return nil, fmt.Errorf("Invalid price for event %v: %v", a.EventHash, a.Price)
	}
	return model.NewArticleEvent(&model.ArticleEventParams{
		EventType: a.EventType,
		ArticleID: uint64(a.ArticleID),
		Seller:    StringToAddress(a.Seller),
		Buyer:     StringToAddress(a.Buyer),
		Name:      a.Name,
		Price:     price,
		Timestamp: a.Timestamp,
		Sequence:  uint64(a.Sequence),
	}), nil
}
