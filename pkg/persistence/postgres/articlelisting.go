package postgres // import "github.com/joincivil/civil-chainlist/pkg/persistence/postgres"

import (
	"fmt"
	"math/big"

	"github.com/joincivil/civil-chainlist/pkg/model"
)

const (
	// ArticleListingTableBaseName is the base name of the versioned article listing table
	ArticleListingTableBaseName = "article_listing"
)

// CreateArticleListingTableQuery returns the query to create the article listing table
func CreateArticleListingTableQuery(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s(
            article_id BIGINT PRIMARY KEY,
            seller TEXT,
            buyer TEXT,
            name TEXT,
            price NUMERIC,
            listed_timestamp BIGINT,
            sold_timestamp BIGINT,
            last_updated_timestamp BIGINT
        );
    `, tableName)
	return queryString
}

// CreateArticleListingTableIndicesQuery returns the query to create the indices
// for the article listing table
func CreateArticleListingTableIndicesQuery(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE INDEX IF NOT EXISTS %s_seller_idx ON %s (seller);
        CREATE INDEX IF NOT EXISTS %s_buyer_idx ON %s (buyer);
        CREATE INDEX IF NOT EXISTS %s_listed_idx ON %s (listed_timestamp);
    `, tableName, tableName, tableName, tableName, tableName, tableName)
	return queryString
}

// ArticleListing is the model definition for the article listing table.
// Field names match the model.ArticleListing accessors so updated fields can
// be mapped to columns.
// NOTE: article ids are uint64 in the ledger and BIGINT here, ids past
// 9223372036854775807 are not supported.
type ArticleListing struct {
	ArticleID int64 `db:"article_id"`

	Seller string `db:"seller"`

	// empty if not sold
	Buyer string `db:"buyer"`

	Name string `db:"name"`

	// wei as a decimal string
	Price string `db:"price"`

	ListedDateTs int64 `db:"listed_timestamp"`

	SoldDateTs int64 `db:"sold_timestamp"`

	LastUpdatedDateTs int64 `db:"last_updated_timestamp"`
}

// NewArticleListing constructs an article listing for the DB from a
// model.ArticleListing
func NewArticleListing(listing *model.ArticleListing) *ArticleListing {
	return &ArticleListing{
		ArticleID:         int64(listing.ArticleID()),
		Seller:            AddressToString(listing.Seller()),
		Buyer:             AddressToString(listing.Buyer()),
		Name:              listing.Name(),
		Price:             listing.Price().String(),
		ListedDateTs:      listing.ListedDateTs(),
		SoldDateTs:        listing.SoldDateTs(),
		LastUpdatedDateTs: listing.LastUpdatedDateTs(),
	}
}

// DbToArticleListingData creates a model.ArticleListing from the postgres
// ArticleListing
func (a *ArticleListing) DbToArticleListingData() (*model.ArticleListing, error) {
	price, ok := new(big.Int).SetString(a.Price, 10)
	if !ok {
		return nil, fmt.Errorf("Invalid price for article %v: %v", a.ArticleID, a.Price)
	}
	return model.NewArticleListing(&model.ArticleListingParams{
		ArticleID:         uint64(a.ArticleID),
		Seller:            StringToAddress(a.Seller),
		Buyer:             StringToAddress(a.Buyer),
		Name:              a.Name,
		Price:             price,
		ListedDateTs:      a.ListedDateTs,
		SoldDateTs:        a.SoldDateTs,
		LastUpdatedDateTs: a.LastUpdatedDateTs,
	}), nil
}
