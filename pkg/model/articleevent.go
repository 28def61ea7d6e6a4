package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

const (
	// EventTypeSellArticle is the notification emitted when an article is listed
	EventTypeSellArticle = "LogSellArticle"
	// EventTypeBuyArticle is the notification emitted when an article is purchased
	EventTypeBuyArticle = "LogBuyArticle"
)

// ArticleEventParams are the params to initialize a new ArticleEvent
type ArticleEventParams struct {
	EventType string
	ArticleID uint64
	Seller    common.Address
	Buyer     common.Address
	Name      string
	Price     *big.Int
	Timestamp int64
	Sequence  uint64
}

// NewArticleEvent is a convenience method to init an ArticleEvent struct
func NewArticleEvent(params *ArticleEventParams) *ArticleEvent {
	price := new(big.Int)
	if params.Price != nil {
		price.Set(params.Price)
	}
	return &ArticleEvent{
		eventType: params.EventType,
		articleID: params.ArticleID,
		seller:    params.Seller,
		buyer:     params.Buyer,
		name:      params.Name,
		price:     price,
		timestamp: params.Timestamp,
		sequence:  params.Sequence,
	}
}

// NewSellNotification returns the notification for a newly listed article
func NewSellNotification(article *Article, timestamp int64, sequence uint64) *ArticleEvent {
	return NewArticleEvent(&ArticleEventParams{
		EventType: EventTypeSellArticle,
		ArticleID: article.ID(),
		Seller:    article.Seller(),
		Name:      article.Name(),
		Price:     article.Price(),
		Timestamp: timestamp,
		Sequence:  sequence,
	})
}

// NewBuyNotification returns the notification for a purchased article
func NewBuyNotification(article *Article, timestamp int64, sequence uint64) *ArticleEvent {
	return NewArticleEvent(&ArticleEventParams{
		EventType: EventTypeBuyArticle,
		ArticleID: article.ID(),
		Seller:    article.Seller(),
		Buyer:     article.Buyer(),
		Name:      article.Name(),
		Price:     article.Price(),
		Timestamp: timestamp,
		Sequence:  sequence,
	})
}

// ArticleEvent is a notification emitted by the ledger after a successful
// sell or buy call. Meant to be a central log of marketplace activity.
type ArticleEvent struct {
	eventType string

	articleID uint64

	seller common.Address

	// zero address for sell notifications
	buyer common.Address

	name string

	price *big.Int

	timestamp int64

	// position of the notification in the ledger's notification stream
	sequence uint64
}

// EventType returns the type of the event, LogSellArticle or LogBuyArticle
func (e *ArticleEvent) EventType() string {
	return e.eventType
}

// ArticleID returns the id of the article this event refers to
func (e *ArticleEvent) ArticleID() uint64 {
	return e.articleID
}

// Seller returns the seller address
func (e *ArticleEvent) Seller() common.Address {
	return e.seller
}

// Buyer returns the buyer address
func (e *ArticleEvent) Buyer() common.Address {
	return e.buyer
}

// Name returns the article name
func (e *ArticleEvent) Name() string {
	return e.name
}

// Price returns a copy of the article price in wei
func (e *ArticleEvent) Price() *big.Int {
	return new(big.Int).Set(e.price)
}

// Timestamp returns the epoch secs at which the event was emitted
func (e *ArticleEvent) Timestamp() int64 {
	return e.timestamp
}

// Sequence returns the position of the event in the ledger's notification stream
func (e *ArticleEvent) Sequence() uint64 {
	return e.sequence
}

type articleEventRLP struct {
	EventType string
	ArticleID uint64
	Seller    common.Address
	Buyer     common.Address
	Name      string
	Price     *big.Int
	Timestamp uint64
	Sequence  uint64
}

// Hash returns the hex keccak256 hash of the RLP encoded event. Used to
// dedupe events between processor runs.
func (e *ArticleEvent) Hash() string {
	encoded, err := rlp.EncodeToBytes(&articleEventRLP{
		EventType: e.eventType,
		ArticleID: e.articleID,
		Seller:    e.seller,
		Buyer:     e.buyer,
		Name:      e.name,
		Price:     e.price,
		Timestamp: uint64(e.timestamp),
		Sequence:  e.sequence,
	})
	if err != nil {
		// Only fails for negative prices, which the ledger never emits
		return ""
	}
	return crypto.Keccak256Hash(encoded).Hex()
}
