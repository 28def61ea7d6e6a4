package model // import "github.com/joincivil/civil-chainlist/pkg/model"

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ValueTransferer is the value transfer rail used by the ledger to move a
// payment from the buyer to the seller. Transfer either moves the full amount
// or returns an error and moves nothing.
type ValueTransferer interface {
	Transfer(from common.Address, to common.Address, amount *big.Int) error
}

// NotificationSink receives notifications from the ledger. It is only invoked
// after a call has committed.
type NotificationSink interface {
	Notify(event *ArticleEvent)
}

// ArticleListingCriteria contains the retrieval criteria for the
// ArticleListingsByCriteria query.
type ArticleListingCriteria struct {
	Offset       int            `db:"offset"`
	Count        int            `db:"count"`
	Seller       common.Address `db:"seller"`
	ForSale      bool           `db:"for_sale"`
	Sold         bool           `db:"sold"`
	ListedFromTs int64          `db:"listed_fromts"`
}

// ArticleListingPersister is the interface to store processed ArticleListings
type ArticleListingPersister interface {
	// ArticleListingsByCriteria returns a slice of ArticleListings by criteria
	ArticleListingsByCriteria(criteria *ArticleListingCriteria) ([]*ArticleListing, error)
	// ArticleListingByID retrieves a listing by the ledger article id
	ArticleListingByID(articleID uint64) (*ArticleListing, error)
	// CreateArticleListing creates a new listing
	CreateArticleListing(listing *ArticleListing) error
	// UpdateArticleListing updates fields on an existing listing
	UpdateArticleListing(listing *ArticleListing, updatedFields []string) error
	// DeleteArticleListing removes a listing
	DeleteArticleListing(listing *ArticleListing) error
}

// RetrieveEventsCriteria contains the retrieval criteria for RetrieveEvents
type RetrieveEventsCriteria struct {
	Offset        int      `db:"offset"`
	Count         int      `db:"count"`
	FromTs        int64    `db:"fromts"`
	BeforeTs      int64    `db:"beforets"`
	ExcludeHashes []string `db:"excludehashes"`
}

// EventPersister is the interface to store and retrieve ledger notifications
type EventPersister interface {
	// SaveEvents stores a list of notifications, returns the errors per event
	SaveEvents(events []*ArticleEvent) []error
	// RetrieveEvents retrieves notifications by criteria, ordered by
	// timestamp then sequence
	RetrieveEvents(criteria *RetrieveEventsCriteria) ([]*ArticleEvent, error)
}

// CronPersister persists information needed for the cron to run the processor
type CronPersister interface {
	// TimestampOfLastEventForCron returns the timestamp of the last event seen
	TimestampOfLastEventForCron() (int64, error)
	// UpdateTimestampForCron updates the timestamp of the last event seen
	UpdateTimestampForCron(timestamp int64) error
	// EventHashesOfLastTimestampForCron returns the hashes of the events
	// processed at the last timestamp
	EventHashesOfLastTimestampForCron() ([]string, error)
	// UpdateEventHashesForCron updates the hashes of the events processed at
	// the last timestamp
	UpdateEventHashesForCron(eventHashes []string) error
}
