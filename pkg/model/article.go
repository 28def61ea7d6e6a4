// Package model contains the general data models and interfaces for the ChainList
// marketplace ledger and processor.
package model // import "github.com/joincivil/civil-chainlist/pkg/model"

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ArticleParams are the params to initialize a new Article
type ArticleParams struct {
	ID          uint64
	Seller      common.Address
	Buyer       common.Address
	Name        string
	Description string
	Price       *big.Int
}

// NewArticle is a convenience method to init an Article struct
func NewArticle(params *ArticleParams) *Article {
	price := new(big.Int)
	if params.Price != nil {
		price.Set(params.Price)
	}
	return &Article{
		id:          params.ID,
		seller:      params.Seller,
		buyer:       params.Buyer,
		name:        params.Name,
		description: params.Description,
		price:       price,
	}
}

// Article represents a single item listed on the marketplace ledger.
// Only the buyer ever changes after creation, and only once.
type Article struct {
	id uint64

	seller common.Address

	// zero address until purchased
	buyer common.Address

	name string

	description string

	// price in wei
	price *big.Int
}

// ID returns the article id. Ids start at 1; 0 is never issued.
func (a *Article) ID() uint64 {
	return a.id
}

// Seller returns the address of the account that listed the article
func (a *Article) Seller() common.Address {
	return a.seller
}

// Buyer returns the address of the purchaser, or the zero address if the
// article is still for sale
func (a *Article) Buyer() common.Address {
	return a.buyer
}

// Name returns the article name
func (a *Article) Name() string {
	return a.name
}

// Description returns the article description
func (a *Article) Description() string {
	return a.description
}

// Price returns a copy of the asking price in wei
func (a *Article) Price() *big.Int {
	return new(big.Int).Set(a.price)
}

// ForSale returns true if the article has not been purchased
func (a *Article) ForSale() bool {
	return a.buyer == (common.Address{})
}

// SetBuyer sets the buyer of the article
func (a *Article) SetBuyer(buyer common.Address) {
	a.buyer = buyer
}

// Copy returns a deep copy of the article
func (a *Article) Copy() *Article {
	return NewArticle(&ArticleParams{
		ID:          a.id,
		Seller:      a.seller,
		Buyer:       a.buyer,
		Name:        a.name,
		Description: a.description,
		Price:       a.price,
	})
}
