package ledger_test

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/joincivil/civil-chainlist/pkg/ledger"
	"github.com/joincivil/civil-chainlist/pkg/model"
	"github.com/joincivil/civil-chainlist/pkg/notification"
	"github.com/joincivil/civil-chainlist/pkg/transfer"
)

const (
	testArticleName         = "First Article"
	testArticleDescription  = "The first article printed for sale."
	testArticleName2        = "Second Article"
	testArticleDescription2 = "The second article printed for sale."
	testTimestamp           = int64(1257894000)
)

var (
	owner   = common.HexToAddress("0x98C8CF45BD844627E84E1C506Ca87cC9436317D0")
	seller1 = common.HexToAddress("0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d")
	seller2 = common.HexToAddress("0xDFe273082089bB7f70Ee36Eebcde64832FE97E55")
	buyer1  = common.HexToAddress("0x39eB6463871040f75C89C67801DF61d4F9e5Ba94")
	buyer2  = common.HexToAddress("0x8a7d2B9EeCF3e2fbC3E4A2Dc0F3B5cF0a0D4A6e1")

	// 15 and 25 ether in wei
	testArticlePrice, _  = new(big.Int).SetString("15000000000000000000", 10)
	testArticlePrice2, _ = new(big.Int).SetString("25000000000000000000", 10)
	startingBalance, _   = new(big.Int).SetString("100000000000000000000", 10)
)

type testSink struct {
	events []*model.ArticleEvent
}

func (s *testSink) Notify(event *model.ArticleEvent) {
	s.events = append(s.events, event)
}

type failingTransferer struct{}

func (f *failingTransferer) Transfer(from common.Address, to common.Address, amount *big.Int) error {
	return errors.New("rail is down")
}

func setupLedger(t *testing.T) (*ledger.Ledger, *transfer.BalanceBook, *testSink) {
	book := transfer.NewBalanceBook()
	for _, addr := range []common.Address{seller1, seller2, buyer1, buyer2} {
		err := book.Credit(addr, startingBalance)
		if err != nil {
			t.Fatalf("Should have credited the test accounts: err: %v", err)
		}
	}
	sink := &testSink{}
	l := ledger.NewLedger(&ledger.NewLedgerParams{
		Owner:      owner,
		Transferer: book,
		Sink:       sink,
		Clock:      func() int64 { return testTimestamp },
	})
	return l, book, sink
}

func sellFirstArticle(t *testing.T, l *ledger.Ledger, seller common.Address) uint64 {
	id, err := l.SellArticle(seller, testArticleName, testArticleDescription, testArticlePrice)
	if err != nil {
		t.Fatalf("Should have sold the article: err: %v", err)
	}
	return id
}

func checkUnsoldFirstArticle(t *testing.T, l *ledger.Ledger, seller common.Address) {
	article, err := l.Article(1)
	if err != nil {
		t.Fatalf("Should have retrieved article 1: err: %v", err)
	}
	if article.ID() != 1 {
		t.Errorf("Should have had article id 1: %v", article.ID())
	}
	if article.Seller() != seller {
		t.Errorf("Should have had seller %v: %v", seller.Hex(), article.Seller().Hex())
	}
	if article.Buyer() != (common.Address{}) {
		t.Errorf("Should have had an empty buyer: %v", article.Buyer().Hex())
	}
	if article.Name() != testArticleName {
		t.Errorf("Should have had article name %v: %v", testArticleName, article.Name())
	}
	if article.Description() != testArticleDescription {
		t.Errorf("Should have had description %v: %v", testArticleDescription, article.Description())
	}
	if article.Price().Cmp(testArticlePrice) != 0 {
		t.Errorf("Should have had price %v: %v", testArticlePrice, article.Price())
	}
	if !article.ForSale() {
		t.Errorf("Should have still been for sale")
	}
	forSale := l.ArticlesForSale()
	if len(forSale) != 1 || forSale[0] != 1 {
		t.Errorf("Should have had only article 1 for sale: %v", forSale)
	}
}

func TestInitializedEmpty(t *testing.T) {
	l, _, _ := setupLedger(t)
	if l.NumberOfArticles() != 0 {
		t.Errorf("Should have had zero articles: %v", l.NumberOfArticles())
	}
	if len(l.ArticlesForSale()) != 0 {
		t.Errorf("Should not have had any article for sale: %v", l.ArticlesForSale())
	}
	latest := l.LatestArticle()
	if latest.Seller() != (common.Address{}) {
		t.Errorf("Should have had an empty seller")
	}
	if latest.Name() != "" || latest.Description() != "" {
		t.Errorf("Should have had an empty name and description")
	}
	if latest.Price().Sign() != 0 {
		t.Errorf("Should have had a zero price")
	}
}

func TestSellArticle(t *testing.T) {
	l, _, sink := setupLedger(t)
	id := sellFirstArticle(t, l, seller1)
	if id != 1 {
		t.Errorf("Should have issued id 1: %v", id)
	}
	if l.NumberOfArticles() != 1 {
		t.Errorf("Should have had 1 article: %v", l.NumberOfArticles())
	}
	checkUnsoldFirstArticle(t, l, seller1)

	if len(sink.events) != 1 {
		t.Fatalf("Should have emitted 1 notification: %v", spew.Sdump(sink.events))
	}
	ev := sink.events[0]
	if ev.EventType() != model.EventTypeSellArticle {
		t.Errorf("Should have emitted LogSellArticle: %v", ev.EventType())
	}
	if ev.ArticleID() != 1 || ev.Seller() != seller1 || ev.Name() != testArticleName {
		t.Errorf("Should have emitted the correct sell values: %v", spew.Sdump(ev))
	}
	if ev.Price().Cmp(testArticlePrice) != 0 {
		t.Errorf("Should have emitted the correct price: %v", ev.Price())
	}
	if ev.Timestamp() != testTimestamp {
		t.Errorf("Should have used the ledger clock: %v", ev.Timestamp())
	}

	latest := l.LatestArticle()
	if latest.ID() != 1 || latest.Seller() != seller1 {
		t.Errorf("Should have returned article 1 as the latest article")
	}
}

func TestSellArticleIDsStrictlyIncreasing(t *testing.T) {
	l, _, _ := setupLedger(t)
	var lastID uint64
	for i := 0; i < 10; i++ {
		id, err := l.SellArticle(seller1, testArticleName, testArticleDescription,
			big.NewInt(int64(i)))
		if err != nil {
			t.Fatalf("Should have sold article: err: %v", err)
		}
		if id <= lastID {
			t.Errorf("Should have issued increasing ids: %v after %v", id, lastID)
		}
		lastID = id
	}
	if l.NumberOfArticles() != 10 {
		t.Errorf("Should have had 10 articles: %v", l.NumberOfArticles())
	}
	if len(l.ArticlesForSale()) != 10 {
		t.Errorf("Should have had 10 articles for sale: %v", l.ArticlesForSale())
	}
}

func TestSellArticleZeroPrice(t *testing.T) {
	l, _, _ := setupLedger(t)
	id, err := l.SellArticle(seller1, testArticleName, testArticleDescription, big.NewInt(0))
	if err != nil {
		t.Fatalf("Should have allowed a zero price: err: %v", err)
	}
	err = l.BuyArticle(buyer1, id, big.NewInt(0))
	if err != nil {
		t.Errorf("Should have allowed buying for zero: err: %v", err)
	}
}

func TestSellArticleNegativePrice(t *testing.T) {
	l, _, sink := setupLedger(t)
	_, err := l.SellArticle(seller1, testArticleName, testArticleDescription, big.NewInt(-1))
	if errors.Cause(err) != model.ErrInvalidAmount {
		t.Errorf("Should have rejected a negative price: err: %v", err)
	}
	if l.NumberOfArticles() != 0 || len(sink.events) != 0 {
		t.Errorf("Should not have changed the ledger")
	}
}

func TestSellArticleCopiesPrice(t *testing.T) {
	l, _, _ := setupLedger(t)
	price := big.NewInt(10)
	id, _ := l.SellArticle(seller1, testArticleName, testArticleDescription, price)
	price.SetInt64(1)
	article, _ := l.Article(id)
	if article.Price().Cmp(big.NewInt(10)) != 0 {
		t.Errorf("Should not have been affected by mutating the input price: %v", article.Price())
	}
	article.Price().SetInt64(2)
	article.SetBuyer(buyer1)
	article, _ = l.Article(id)
	if article.Price().Cmp(big.NewInt(10)) != 0 || !article.ForSale() {
		t.Errorf("Should not have been affected by mutating a snapshot")
	}
}

func TestBuyArticle(t *testing.T) {
	l, book, sink := setupLedger(t)
	_ = sellFirstArticle(t, l, seller1)
	_, err := l.SellArticle(seller1, testArticleName2, testArticleDescription2, testArticlePrice2)
	if err != nil {
		t.Fatalf("Should have sold the second article: err: %v", err)
	}
	if l.NumberOfArticles() != 2 {
		t.Errorf("Should have had 2 articles: %v", l.NumberOfArticles())
	}
	if len(l.ArticlesForSale()) != 2 {
		t.Errorf("Should have had 2 articles for sale: %v", l.ArticlesForSale())
	}

	sellerBefore := book.BalanceOf(seller1)
	buyerBefore := book.BalanceOf(buyer2)

	err = l.BuyArticle(buyer2, 1, testArticlePrice)
	if err != nil {
		t.Fatalf("Should have bought the article: err: %v", err)
	}

	if len(sink.events) != 3 {
		t.Fatalf("Should have emitted 3 notifications: %v", spew.Sdump(sink.events))
	}
	ev := sink.events[2]
	if ev.EventType() != model.EventTypeBuyArticle {
		t.Errorf("Should have emitted LogBuyArticle: %v", ev.EventType())
	}
	if ev.ArticleID() != 1 || ev.Seller() != seller1 || ev.Buyer() != buyer2 ||
		ev.Name() != testArticleName || ev.Price().Cmp(testArticlePrice) != 0 {
		t.Errorf("Should have emitted the correct buy values: %v", spew.Sdump(ev))
	}
	if ev.Sequence() != 2 {
		t.Errorf("Should have been the third notification: %v", ev.Sequence())
	}

	expectedSeller := new(big.Int).Add(sellerBefore, testArticlePrice)
	if book.BalanceOf(seller1).Cmp(expectedSeller) != 0 {
		t.Errorf("Should have credited the seller with the price: %v", book.BalanceOf(seller1))
	}
	maxBuyer := new(big.Int).Sub(buyerBefore, testArticlePrice)
	if book.BalanceOf(buyer2).Cmp(maxBuyer) > 0 {
		t.Errorf("Should have debited the buyer at least the price: %v", book.BalanceOf(buyer2))
	}

	if l.NumberOfArticles() != 2 {
		t.Errorf("Should have still had 2 articles: %v", l.NumberOfArticles())
	}
	forSale := l.ArticlesForSale()
	if len(forSale) != 1 || forSale[0] != 2 {
		t.Errorf("Should have had only article 2 left for sale: %v", forSale)
	}
	article, _ := l.Article(1)
	if article.Buyer() != buyer2 {
		t.Errorf("Should have set the buyer: %v", article.Buyer().Hex())
	}
	if article.ForSale() {
		t.Errorf("Should not be for sale anymore")
	}
}

func TestBuyArticleNoArticleForSaleYet(t *testing.T) {
	l, book, sink := setupLedger(t)
	err := l.BuyArticle(buyer1, 1, testArticlePrice)
	if errors.Cause(err) != model.ErrArticleNotFound {
		t.Errorf("Should have failed with article not found: err: %v", err)
	}
	if l.NumberOfArticles() != 0 {
		t.Errorf("Should have had zero articles: %v", l.NumberOfArticles())
	}
	if len(sink.events) != 0 {
		t.Errorf("Should not have emitted any notification")
	}
	if book.BalanceOf(buyer1).Cmp(startingBalance) != 0 {
		t.Errorf("Should not have moved any funds")
	}
}

func TestBuyArticleDoesNotExist(t *testing.T) {
	l, _, _ := setupLedger(t)
	_ = sellFirstArticle(t, l, seller1)
	err := l.BuyArticle(buyer1, 2, testArticlePrice)
	if errors.Cause(err) != model.ErrArticleNotFound {
		t.Errorf("Should have failed with article not found: err: %v", err)
	}
	checkUnsoldFirstArticle(t, l, seller1)
}

func TestBuyOwnArticle(t *testing.T) {
	l, book, sink := setupLedger(t)
	_ = sellFirstArticle(t, l, seller1)
	err := l.BuyArticle(seller1, 1, testArticlePrice)
	if errors.Cause(err) != model.ErrSelfPurchase {
		t.Errorf("Should have failed with self purchase: err: %v", err)
	}
	checkUnsoldFirstArticle(t, l, seller1)
	if len(sink.events) != 1 {
		t.Errorf("Should have only emitted the sell notification")
	}
	if book.BalanceOf(seller1).Cmp(startingBalance) != 0 {
		t.Errorf("Should not have moved any funds")
	}
}

func TestBuyArticleWrongPrice(t *testing.T) {
	l, book, _ := setupLedger(t)
	_ = sellFirstArticle(t, l, seller1)

	more := new(big.Int).Add(testArticlePrice, big.NewInt(1))
	less := new(big.Int).Sub(testArticlePrice, big.NewInt(1))
	for _, payment := range []*big.Int{more, less, nil} {
		err := l.BuyArticle(buyer2, 1, payment)
		if errors.Cause(err) != model.ErrPriceMismatch {
			t.Errorf("Should have failed with price mismatch for %v: err: %v", payment, err)
		}
	}
	checkUnsoldFirstArticle(t, l, seller1)
	if book.BalanceOf(buyer2).Cmp(startingBalance) != 0 {
		t.Errorf("Should not have moved any funds")
	}
}

func TestBuyArticleAlreadySold(t *testing.T) {
	l, book, sink := setupLedger(t)
	_ = sellFirstArticle(t, l, seller2)
	err := l.BuyArticle(buyer2, 1, testArticlePrice)
	if err != nil {
		t.Fatalf("Should have bought the article: err: %v", err)
	}
	sellerAfterFirst := book.BalanceOf(seller2)

	err = l.BuyArticle(buyer1, 1, testArticlePrice)
	if errors.Cause(err) != model.ErrAlreadySold {
		t.Errorf("Should have failed with already sold: err: %v", err)
	}

	article, _ := l.Article(1)
	if article.Buyer() != buyer2 {
		t.Errorf("Should have kept the first buyer: %v", article.Buyer().Hex())
	}
	if article.Seller() != seller2 || article.Name() != testArticleName ||
		article.Price().Cmp(testArticlePrice) != 0 {
		t.Errorf("Should not have changed the article: %v", spew.Sdump(article))
	}
	if len(l.ArticlesForSale()) != 0 {
		t.Errorf("Should not have any article for sale: %v", l.ArticlesForSale())
	}
	if book.BalanceOf(seller2).Cmp(sellerAfterFirst) != 0 {
		t.Errorf("Should not have credited the seller twice")
	}
	if book.BalanceOf(buyer1).Cmp(startingBalance) != 0 {
		t.Errorf("Should not have debited the second buyer")
	}
	if len(sink.events) != 2 {
		t.Errorf("Should have emitted only the sell and first buy notifications")
	}
}

func TestBuyArticleInsufficientFunds(t *testing.T) {
	l, book, sink := setupLedger(t)
	poorBuyer := common.HexToAddress("0x1111111111111111111111111111111111111111")
	_ = sellFirstArticle(t, l, seller1)

	err := l.BuyArticle(poorBuyer, 1, testArticlePrice)
	if errors.Cause(err) != model.ErrInsufficientFunds {
		t.Errorf("Should have failed with insufficient funds: err: %v", err)
	}
	checkUnsoldFirstArticle(t, l, seller1)
	if book.BalanceOf(seller1).Cmp(startingBalance) != 0 {
		t.Errorf("Should not have credited the seller")
	}
	if len(sink.events) != 1 {
		t.Errorf("Should not have emitted a buy notification")
	}
}

func TestBuyArticleTransferFailure(t *testing.T) {
	sink := &testSink{}
	l := ledger.NewLedger(&ledger.NewLedgerParams{
		Owner:      owner,
		Transferer: &failingTransferer{},
		Sink:       sink,
	})
	_ = sellFirstArticle(t, l, seller1)
	err := l.BuyArticle(buyer1, 1, testArticlePrice)
	if err == nil {
		t.Errorf("Should have failed when the transfer failed")
	}
	checkUnsoldFirstArticle(t, l, seller1)
	if len(sink.events) != 1 {
		t.Errorf("Should not have emitted a buy notification")
	}
}

func TestBuyFirstOfTwoArticles(t *testing.T) {
	l, _, _ := setupLedger(t)
	_ = sellFirstArticle(t, l, seller1)
	_, _ = l.SellArticle(seller2, testArticleName2, testArticleDescription2, testArticlePrice2)
	err := l.BuyArticle(buyer1, 1, testArticlePrice)
	if err != nil {
		t.Fatalf("Should have bought article 1: err: %v", err)
	}
	forSale := l.ArticlesForSale()
	if len(forSale) != 1 || forSale[0] != 2 {
		t.Errorf("Should have had only article 2 for sale: %v", forSale)
	}
	err = l.BuyArticle(buyer1, 2, testArticlePrice2)
	if err != nil {
		t.Fatalf("Should have bought article 2: err: %v", err)
	}
	if len(l.ArticlesForSale()) != 0 {
		t.Errorf("Should have had nothing for sale: %v", l.ArticlesForSale())
	}
}

func TestConcurrentBuysOnlyOneSucceeds(t *testing.T) {
	l, book, _ := setupLedger(t)
	_ = sellFirstArticle(t, l, seller1)

	buyers := []common.Address{buyer1, buyer2, seller2}
	errs := make([]error, len(buyers))
	var wg sync.WaitGroup
	for i, buyer := range buyers {
		wg.Add(1)
		go func(i int, buyer common.Address) {
			defer wg.Done()
			errs[i] = l.BuyArticle(buyer, 1, testArticlePrice)
		}(i, buyer)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		if errors.Cause(err) != model.ErrAlreadySold {
			t.Errorf("Should have failed with already sold: err: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("Should have had exactly one successful buy: %v", successes)
	}
	expectedSeller := new(big.Int).Add(startingBalance, testArticlePrice)
	if book.BalanceOf(seller1).Cmp(expectedSeller) != 0 {
		t.Errorf("Should have credited the seller exactly once: %v", book.BalanceOf(seller1))
	}
}

func TestBuyArticleZeroAddressBuyer(t *testing.T) {
	l, _, sink := setupLedger(t)
	id, err := l.SellArticle(seller1, testArticleName, testArticleDescription, big.NewInt(0))
	if err != nil {
		t.Fatalf("Should have sold a free article: err: %v", err)
	}

	for i := 0; i < 2; i++ {
		err = l.BuyArticle(common.Address{}, id, big.NewInt(0))
		if errors.Cause(err) != model.ErrInvalidBuyer {
			t.Errorf("Should have rejected the zero address buyer: err: %v", err)
		}
	}

	article, _ := l.Article(id)
	forSale := l.ArticlesForSale()
	if !article.ForSale() || len(forSale) != 1 || forSale[0] != id {
		t.Errorf("Should have left the article for sale: %v, %v", article.ForSale(), forSale)
	}
	if len(sink.events) != 1 {
		t.Errorf("Should have only emitted the sell notification: %v", spew.Sdump(sink.events))
	}

	err = l.BuyArticle(buyer1, id, big.NewInt(0))
	if err != nil {
		t.Errorf("Should have allowed a real buyer afterwards: err: %v", err)
	}
}

type queryingSink struct {
	target  *ledger.Ledger
	forSale []bool
}

func (s *queryingSink) Notify(event *model.ArticleEvent) {
	article, err := s.target.Article(event.ArticleID())
	if err != nil {
		return
	}
	s.forSale = append(s.forSale, article.ForSale())
}

func TestSinkCanQueryLedger(t *testing.T) {
	book := transfer.NewBalanceBook()
	_ = book.Credit(buyer1, startingBalance)
	querying := &queryingSink{}
	recorded := &testSink{}
	l := ledger.NewLedger(&ledger.NewLedgerParams{
		Owner:      owner,
		Transferer: book,
		Sink:       notification.NewMultiSink(querying, recorded),
	})
	querying.target = l

	done := make(chan error)
	go func() {
		_, err := l.SellArticle(seller1, testArticleName, testArticleDescription, testArticlePrice)
		if err == nil {
			err = l.BuyArticle(buyer1, 1, testArticlePrice)
		}
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Should have sold and bought the article: err: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Should not have blocked when the sink queried the ledger")
	}

	if len(querying.forSale) != 2 || !querying.forSale[0] || querying.forSale[1] {
		t.Errorf("Should have seen the committed state from the sink: %v", querying.forSale)
	}
	if len(recorded.events) != 2 {
		t.Errorf("Should have delivered to every sink: %v", len(recorded.events))
	}
}

func TestConcurrentSellsNotifyInOrder(t *testing.T) {
	l, _, sink := setupLedger(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.SellArticle(seller1, testArticleName, testArticleDescription, testArticlePrice)
		}()
	}
	wg.Wait()

	if len(sink.events) != 20 {
		t.Fatalf("Should have emitted 20 notifications: %v", len(sink.events))
	}
	for i, event := range sink.events {
		if event.Sequence() != uint64(i) || event.ArticleID() != uint64(i+1) {
			t.Errorf("Should have delivered notifications in commit order: %v, seq %v, id %v",
				i, event.Sequence(), event.ArticleID())
		}
	}
}

func TestKill(t *testing.T) {
	l, _, _ := setupLedger(t)
	_ = sellFirstArticle(t, l, seller1)

	err := l.Kill(seller1)
	if errors.Cause(err) != model.ErrUnauthorized {
		t.Errorf("Should have rejected a kill from a non-owner: err: %v", err)
	}
	if l.Retired() {
		t.Errorf("Should not have retired the ledger")
	}
	err = l.BuyArticle(buyer1, 1, testArticlePrice)
	if err != nil {
		t.Errorf("Should have still allowed buying after a rejected kill: err: %v", err)
	}

	err = l.Kill(owner)
	if err != nil {
		t.Errorf("Should have allowed the owner to kill: err: %v", err)
	}
	if !l.Retired() {
		t.Errorf("Should have retired the ledger")
	}
	err = l.Kill(owner)
	if err != nil {
		t.Errorf("Should have allowed killing twice: err: %v", err)
	}

	_, err = l.SellArticle(seller1, testArticleName2, testArticleDescription2, testArticlePrice2)
	if errors.Cause(err) != model.ErrLedgerRetired {
		t.Errorf("Should have rejected selling on a retired ledger: err: %v", err)
	}
	err = l.BuyArticle(buyer2, 1, testArticlePrice)
	if errors.Cause(err) != model.ErrLedgerRetired {
		t.Errorf("Should have rejected buying on a retired ledger: err: %v", err)
	}
	if l.NumberOfArticles() != 1 {
		t.Errorf("Should have kept the sold history: %v", l.NumberOfArticles())
	}
	article, err := l.Article(1)
	if err != nil || article.Buyer() != buyer1 {
		t.Errorf("Should have kept article 1 readable after retirement: err: %v", err)
	}
}

func TestArticleNotFound(t *testing.T) {
	l, _, _ := setupLedger(t)
	_, err := l.Article(0)
	if errors.Cause(err) != model.ErrArticleNotFound {
		t.Errorf("Should have failed with article not found for id 0: err: %v", err)
	}
	_ = sellFirstArticle(t, l, seller1)
	_, err = l.Article(2)
	if errors.Cause(err) != model.ErrArticleNotFound {
		t.Errorf("Should have failed with article not found for id 2: err: %v", err)
	}
}
