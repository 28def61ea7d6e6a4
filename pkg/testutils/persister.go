// Package testutils contains in-memory implementations of the persisters for
// use in tests.
package testutils // import "github.com/joincivil/civil-chainlist/pkg/testutils"

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joincivil/civil-chainlist/pkg/model"
)

// TestPersister is an in-memory ArticleListingPersister, EventPersister and
// CronPersister
type TestPersister struct {
	mutex       sync.Mutex
	listings    map[uint64]*model.ArticleListing
	events      []*model.ArticleEvent
	timestamp   int64
	eventHashes []string
}

// ArticleListingsByCriteria returns the listings matching the criteria
// ordered by article id
func (t *TestPersister) ArticleListingsByCriteria(criteria *model.ArticleListingCriteria) (
	[]*model.ArticleListing, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	ids := make([]uint64, 0, len(t.listings))
	for id := range t.listings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	results := []*model.ArticleListing{}
	for _, id := range ids {
		listing := t.listings[id]
		if criteria.ForSale && listing.Sold() {
			continue
		}
		if criteria.Sold && !listing.Sold() {
			continue
		}
		if criteria.Seller != (common.Address{}) && listing.Seller() != criteria.Seller {
			continue
		}
		if criteria.ListedFromTs > 0 && listing.ListedDateTs() < criteria.ListedFromTs {
			continue
		}
		results = append(results, listing)
	}
	return paginate(results, criteria.Offset, criteria.Count), nil
}

// ArticleListingByID returns the listing for the article id
func (t *TestPersister) ArticleListingByID(articleID uint64) (*model.ArticleListing, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	listing, ok := t.listings[articleID]
	if !ok {
		return nil, model.ErrPersisterNoResults
	}
	return listing, nil
}

// CreateArticleListing stores a new listing
func (t *TestPersister) CreateArticleListing(listing *model.ArticleListing) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.listings == nil {
		t.listings = map[uint64]*model.ArticleListing{}
	}
	t.listings[listing.ArticleID()] = listing
	return nil
}

// UpdateArticleListing replaces the stored listing
func (t *TestPersister) UpdateArticleListing(listing *model.ArticleListing, updatedFields []string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if _, ok := t.listings[listing.ArticleID()]; !ok {
		return model.ErrPersisterNoResults
	}
	t.listings[listing.ArticleID()] = listing
	return nil
}

// DeleteArticleListing removes the listing
func (t *TestPersister) DeleteArticleListing(listing *model.ArticleListing) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	delete(t.listings, listing.ArticleID())
	return nil
}

// SaveEvents stores the events
func (t *TestPersister) SaveEvents(events []*model.ArticleEvent) []error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.events = append(t.events, events...)
	return nil
}

// RetrieveEvents returns the events matching the criteria ordered by
// timestamp then sequence
func (t *TestPersister) RetrieveEvents(criteria *model.RetrieveEventsCriteria) (
	[]*model.ArticleEvent, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	excluded := map[string]bool{}
	for _, hash := range criteria.ExcludeHashes {
		excluded[hash] = true
	}
	results := []*model.ArticleEvent{}
	for _, event := range t.events {
		if event.Timestamp() < criteria.FromTs {
			continue
		}
		if criteria.BeforeTs > 0 && event.Timestamp() >= criteria.BeforeTs {
			continue
		}
		if excluded[event.Hash()] {
			continue
		}
		results = append(results, event)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Timestamp() != results[j].Timestamp() {
			return results[i].Timestamp() < results[j].Timestamp()
		}
		return results[i].Sequence() < results[j].Sequence()
	})
	if criteria.Offset >= len(results) {
		return []*model.ArticleEvent{}, nil
	}
	results = results[criteria.Offset:]
	if criteria.Count > 0 && criteria.Count < len(results) {
		results = results[:criteria.Count]
	}
	return results, nil
}

// TimestampOfLastEventForCron returns the last timestamp saved
func (t *TestPersister) TimestampOfLastEventForCron() (int64, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.timestamp, nil
}

// UpdateTimestampForCron saves the last timestamp
func (t *TestPersister) UpdateTimestampForCron(timestamp int64) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.timestamp = timestamp
	return nil
}

// EventHashesOfLastTimestampForCron returns the last event hashes saved
func (t *TestPersister) EventHashesOfLastTimestampForCron() ([]string, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.eventHashes, nil
}

// UpdateEventHashesForCron saves the last event hashes
func (t *TestPersister) UpdateEventHashesForCron(eventHashes []string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.eventHashes = eventHashes
	return nil
}

func paginate(listings []*model.ArticleListing, offset int, count int) []*model.ArticleListing {
	if offset >= len(listings) {
		return []*model.ArticleListing{}
	}
	listings = listings[offset:]
	if count > 0 && count < len(listings) {
		listings = listings[:count]
	}
	return listings
}
