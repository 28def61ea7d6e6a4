package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ArticleListingParams are the params to initialize a new ArticleListing
type ArticleListingParams struct {
	ArticleID         uint64
	Seller            common.Address
	Buyer             common.Address
	Name              string
	Price             *big.Int
	ListedDateTs      int64
	SoldDateTs        int64
	LastUpdatedDateTs int64
}

// NewArticleListing is a convenience method to init an ArticleListing struct
func NewArticleListing(params *ArticleListingParams) *ArticleListing {
	price := new(big.Int)
	if params.Price != nil {
		price.Set(params.Price)
	}
	return &ArticleListing{
		articleID:         params.ArticleID,
		seller:            params.Seller,
		buyer:             params.Buyer,
		name:              params.Name,
		price:             price,
		listedDateTs:      params.ListedDateTs,
		soldDateTs:        params.SoldDateTs,
		lastUpdatedDateTs: params.LastUpdatedDateTs,
	}
}

// ArticleListing is the processed view of an article built from the ledger's
// notifications, for use via the API.
type ArticleListing struct {
	articleID uint64

	seller common.Address

	buyer common.Address

	name string

	price *big.Int

	listedDateTs int64

	soldDateTs int64

	lastUpdatedDateTs int64
}

// ArticleID returns the ledger id of the article
func (l *ArticleListing) ArticleID() uint64 {
	return l.articleID
}

// Seller returns the seller address
func (l *ArticleListing) Seller() common.Address {
	return l.seller
}

// Buyer returns the buyer address, zero if unsold
func (l *ArticleListing) Buyer() common.Address {
	return l.buyer
}

// SetBuyer sets the buyer address
func (l *ArticleListing) SetBuyer(buyer common.Address) {
	l.buyer = buyer
}

// Sold returns true if the listing has a buyer
func (l *ArticleListing) Sold() bool {
	return l.buyer != (common.Address{})
}

// Name returns the article name
func (l *ArticleListing) Name() string {
	return l.name
}

// Price returns the price in wei
func (l *ArticleListing) Price() *big.Int {
	return l.price
}

// ListedDateTs returns the timestamp of the sell notification
func (l *ArticleListing) ListedDateTs() int64 {
	return l.listedDateTs
}

// SoldDateTs returns the timestamp of the buy notification, 0 if unsold
func (l *ArticleListing) SoldDateTs() int64 {
	return l.soldDateTs
}

// SetSoldDateTs sets the timestamp of the buy notification
func (l *ArticleListing) SetSoldDateTs(ts int64) {
	l.soldDateTs = ts
}

// LastUpdatedDateTs returns the timestamp of the last update
func (l *ArticleListing) LastUpdatedDateTs() int64 {
	return l.lastUpdatedDateTs
}

// SetLastUpdatedDateTs sets the timestamp of the last update
func (l *ArticleListing) SetLastUpdatedDateTs(ts int64) {
	l.lastUpdatedDateTs = ts
}
