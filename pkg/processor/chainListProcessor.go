package processor

import (
	"fmt"

	log "github.com/golang/glog"

	"github.com/joincivil/civil-chainlist/pkg/generated"
	"github.com/joincivil/civil-chainlist/pkg/model"
	"github.com/joincivil/civil-chainlist/pkg/utils"
)

const (
	buyerModelName             = "Buyer"
	soldDateTsModelName        = "SoldDateTs"
	lastUpdatedDateTsModelName = "LastUpdatedDateTs"
)

// NewChainListEventProcessor is a convenience function to init a
// ChainListEventProcessor
func NewChainListEventProcessor(listingPersister model.ArticleListingPersister) *ChainListEventProcessor {
	return &ChainListEventProcessor{
		listingPersister: listingPersister,
	}
}

// ChainListEventProcessor handles the processing of ChainList notifications
// into ArticleListings
type ChainListEventProcessor struct {
	listingPersister model.ArticleListingPersister
}

// Process processes a ChainList notification. Returns false if the event is
// not handled by this processor.
func (c *ChainListEventProcessor) Process(event *model.ArticleEvent) (bool, error) {
	if !generated.IsValidChainListContractEventName(event.EventType()) {
		return false, nil
	}

	var err error
	ran := true

	switch event.EventType() {
	// When an article is listed
	case model.EventTypeSellArticle:
		log.Infof("Handling LogSellArticle for %v\n", event.ArticleID())
		err = c.processSellArticle(event)

	// When an article is purchased
	case model.EventTypeBuyArticle:
		log.Infof("Handling LogBuyArticle for %v\n", event.ArticleID())
		err = c.processBuyArticle(event)

	default:
		ran = false
	}
	return ran, err
}

func (c *ChainListEventProcessor) processSellArticle(event *model.ArticleEvent) error {
	existing, err := c.listingPersister.ArticleListingByID(event.ArticleID())
	if err != nil && err != model.ErrPersisterNoResults {
		return fmt.Errorf("Error retrieving listing: err: %v", err)
	}
	if existing != nil {
		return fmt.Errorf("Listing already exists for article %v", event.ArticleID())
	}

	listing := model.NewArticleListing(&model.ArticleListingParams{
		ArticleID:         event.ArticleID(),
		Seller:            event.Seller(),
		Name:              event.Name(),
		Price:             event.Price(),
		ListedDateTs:      event.Timestamp(),
		LastUpdatedDateTs: utils.CurrentEpochSecsInInt64(),
	})
	return c.listingPersister.CreateArticleListing(listing)
}

func (c *ChainListEventProcessor) processBuyArticle(event *model.ArticleEvent) error {
	listing, err := c.listingPersister.ArticleListingByID(event.ArticleID())
	if err != nil {
		if err == model.ErrPersisterNoResults {
			return fmt.Errorf("No listing found for purchased article %v", event.ArticleID())
		}
		return fmt.Errorf("Error retrieving listing: err: %v", err)
	}
	if listing.Sold() {
		return fmt.Errorf("Listing for article %v already sold to %v", event.ArticleID(),
			listing.Buyer().Hex())
	}

	listing.SetBuyer(event.Buyer())
	listing.SetSoldDateTs(event.Timestamp())
	listing.SetLastUpdatedDateTs(utils.CurrentEpochSecsInInt64())
	updatedFields := []string{buyerModelName, soldDateTsModelName, lastUpdatedDateTsModelName}
	return c.listingPersister.UpdateArticleListing(listing, updatedFields)
}
