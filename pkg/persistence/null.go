package persistence

import (
	"github.com/joincivil/civil-chainlist/pkg/model"
)

// NullPersister is a persister that does not save any values and always returns
// defaults for interface methods. Handy for testing and for running the
// processor without storage.
type NullPersister struct{}

// ArticleListingsByCriteria returns an empty slice of listings
func (n *NullPersister) ArticleListingsByCriteria(criteria *model.ArticleListingCriteria) (
	[]*model.ArticleListing, error) {
	return []*model.ArticleListing{}, nil
}

// ArticleListingByID returns no results
func (n *NullPersister) ArticleListingByID(articleID uint64) (*model.ArticleListing, error) {
	return nil, model.ErrPersisterNoResults
}

// CreateArticleListing creates a new listing
func (n *NullPersister) CreateArticleListing(listing *model.ArticleListing) error {
	return nil
}

// UpdateArticleListing updates fields on an existing listing
func (n *NullPersister) UpdateArticleListing(listing *model.ArticleListing, updatedFields []string) error {
	return nil
}

// DeleteArticleListing removes a listing
func (n *NullPersister) DeleteArticleListing(listing *model.ArticleListing) error {
	return nil
}

// SaveEvents saves nothing
func (n *NullPersister) SaveEvents(events []*model.ArticleEvent) []error {
	return nil
}

// RetrieveEvents returns an empty slice of events
func (n *NullPersister) RetrieveEvents(criteria *model.RetrieveEventsCriteria) ([]*model.ArticleEvent, error) {
	return []*model.ArticleEvent{}, nil
}

// TimestampOfLastEventForCron returns the timestamp for the last event seen by the processor
func (n *NullPersister) TimestampOfLastEventForCron() (int64, error) {
	return int64(0), nil
}

// UpdateTimestampForCron updates the timestamp of the last event seen by the processor
func (n *NullPersister) UpdateTimestampForCron(timestamp int64) error {
	return nil
}

// EventHashesOfLastTimestampForCron returns the event hashes processed for the last timestamp from cron
func (n *NullPersister) EventHashesOfLastTimestampForCron() ([]string, error) {
	return []string{}, nil
}

// UpdateEventHashesForCron updates the eventHashes saved in cron table
func (n *NullPersister) UpdateEventHashesForCron(eventHashes []string) error {
	return nil
}
