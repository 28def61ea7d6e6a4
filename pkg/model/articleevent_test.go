package model_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joincivil/civil-chainlist/pkg/model"
)

func setupSampleArticle() *model.Article {
	return model.NewArticle(&model.ArticleParams{
		ID:          1,
		Seller:      common.HexToAddress("0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d"),
		Name:        "article 1",
		Description: "Description for article 1",
		Price:       big.NewInt(10),
	})
}

func TestArticleForSale(t *testing.T) {
	article := setupSampleArticle()
	if !article.ForSale() {
		t.Errorf("Should have been for sale without a buyer")
	}
	copied := article.Copy()
	copied.SetBuyer(common.HexToAddress("0xDFe273082089bB7f70Ee36Eebcde64832FE97E55"))
	if copied.ForSale() {
		t.Errorf("Should not have been for sale with a buyer")
	}
	if !article.ForSale() {
		t.Errorf("Should not have changed the original article")
	}
}

func TestArticleEventHash(t *testing.T) {
	article := setupSampleArticle()
	sell := model.NewSellNotification(article, 1257894000, 0)
	sell2 := model.NewSellNotification(article, 1257894000, 0)
	if sell.Hash() == "" {
		t.Errorf("Should have had a hash")
	}
	if sell.Hash() != sell2.Hash() {
		t.Errorf("Should have had the same hash for the same event")
	}

	article.SetBuyer(common.HexToAddress("0xDFe273082089bB7f70Ee36Eebcde64832FE97E55"))
	buy := model.NewBuyNotification(article, 1257894000, 1)
	if buy.Hash() == sell.Hash() {
		t.Errorf("Should have had different hashes for different events")
	}
	if buy.EventType() != model.EventTypeBuyArticle || buy.Buyer() != article.Buyer() {
		t.Errorf("Should have built a buy notification from the article")
	}
	if sell.Buyer() != (common.Address{}) {
		t.Errorf("Should not have had a buyer on the sell notification")
	}
}
