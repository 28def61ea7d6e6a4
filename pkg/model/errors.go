package model

import (
	"github.com/pkg/errors"
)

// Rejections returned by the marketplace ledger. A rejected call never changes
// ledger state. Use errors.Cause to compare against these.
var (
	// ErrArticleNotFound is returned when an id does not reference a listed article
	ErrArticleNotFound = errors.New("article not found")
	// ErrAlreadySold is returned when buying an article that already has a buyer
	ErrAlreadySold = errors.New("article already sold")
	// ErrSelfPurchase is returned when a seller tries to buy their own article
	ErrSelfPurchase = errors.New("seller cannot buy own article")
	// ErrPriceMismatch is returned when the attached payment is not the price
	ErrPriceMismatch = errors.New("payment does not match article price")
	// ErrUnauthorized is returned when a non-owner attempts an owner-only call
	ErrUnauthorized = errors.New("caller is not the ledger owner")
	// ErrInvalidBuyer is returned when the buyer is the zero address, which
	// would leave the article looking unsold
	ErrInvalidBuyer = errors.New("invalid buyer address")
	// ErrLedgerRetired is returned for sell or buy calls after the owner
	// retired the ledger
	ErrLedgerRetired = errors.New("ledger has been retired")
)

var (
	// ErrInsufficientFunds is returned by the value transfer rail when an
	// account cannot cover an amount
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount is returned for negative or nil amounts
	ErrInvalidAmount = errors.New("invalid amount")
)

// ErrPersisterNoResults is returned by persisters when a lookup returns nothing
var ErrPersisterNoResults = errors.New("No results from persister")
