// Package ledger contains the ChainList marketplace ledger: the article table,
// the id counter and the set of articles currently for sale, along with the
// rules guarding sells and buys.
package ledger // import "github.com/joincivil/civil-chainlist/pkg/ledger"

import (
	"math/big"
	"sync"

	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joincivil/civil-chainlist/pkg/model"
	"github.com/joincivil/civil-chainlist/pkg/utils"
)

// NewLedgerParams are the params to init a new Ledger
type NewLedgerParams struct {
	// Owner is the deploying identity, the only one allowed to retire the ledger
	Owner common.Address
	// Transferer moves payments from buyers to sellers
	Transferer model.ValueTransferer
	// Sink receives notifications after each successful call. Can be nil.
	Sink model.NotificationSink
	// Clock returns the current epoch secs. Defaults to the system clock.
	Clock func() int64
}

// NewLedger returns a fresh Ledger with no articles
func NewLedger(params *NewLedgerParams) *Ledger {
	clock := params.Clock
	if clock == nil {
		clock = utils.CurrentEpochSecsInInt64
	}
	l := &Ledger{
		owner:      params.Owner,
		transferer: params.Transferer,
		sink:       params.Sink,
		clock:      clock,
		articles:   map[uint64]*model.Article{},
		forSale:    []uint64{},
	}
	l.notifyCond = sync.NewCond(&l.notifyMu)
	return l
}

// Ledger is the marketplace ledger. Every mutating call is serialized and
// either fully applies or leaves the ledger untouched.
type Ledger struct {
	mu sync.Mutex

	owner      common.Address
	transferer model.ValueTransferer
	sink       model.NotificationSink
	clock      func() int64

	articleCount uint64
	articles     map[uint64]*model.Article
	// ids ascending, as ids are issued in order and only ever removed
	forSale []uint64

	// number of notifications emitted
	sequence uint64
	retired  bool

	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	// number of notifications handed to the sink, guarded by notifyMu
	delivered uint64
}

// Owner returns the identity allowed to retire the ledger
func (l *Ledger) Owner() common.Address {
	return l.owner
}

// SellArticle lists a new article for the caller and returns its id
func (l *Ledger) SellArticle(caller common.Address, name string, description string,
	price *big.Int) (uint64, error) {
	if price == nil || price.Sign() < 0 {
		return 0, errors.Wrapf(model.ErrInvalidAmount, "price %v", price)
	}

	l.mu.Lock()
	id, event, err := l.sellArticle(caller, name, description, price)
	l.unlockAndNotify(event)
	return id, err
}

func (l *Ledger) sellArticle(caller common.Address, name string, description string,
	price *big.Int) (uint64, *model.ArticleEvent, error) {
	if l.retired {
		return 0, nil, model.ErrLedgerRetired
	}

	newID := l.articleCount + 1
	article := model.NewArticle(&model.ArticleParams{
		ID:          newID,
		Seller:      caller,
		Name:        name,
		Description: description,
		Price:       price,
	})

	l.articles[newID] = article
	l.forSale = append(l.forSale, newID)
	l.articleCount = newID

	log.V(2).Infof("Article %v listed by %v for %v wei", newID, caller.Hex(), price)
	return newID, l.nextNotification(model.NewSellNotification(article, l.clock(), l.sequence)), nil
}

// BuyArticle purchases the article with the given id for the caller. The
// payment must equal the article price exactly. On any rejection no state
// changes and no funds move.
func (l *Ledger) BuyArticle(caller common.Address, id uint64, payment *big.Int) error {
	l.mu.Lock()
	event, err := l.buyArticle(caller, id, payment)
	l.unlockAndNotify(event)
	return err
}

func (l *Ledger) buyArticle(caller common.Address, id uint64, payment *big.Int) (
	*model.ArticleEvent, error) {
	if l.retired {
		return nil, model.ErrLedgerRetired
	}
	// The buyer field doubles as the sold marker
	if caller == (common.Address{}) {
		return nil, errors.Wrapf(model.ErrInvalidBuyer, "article %v", id)
	}

	article, ok := l.articles[id]
	if !ok {
		return nil, errors.Wrapf(model.ErrArticleNotFound, "article %v", id)
	}
	if !article.ForSale() {
		return nil, errors.Wrapf(model.ErrAlreadySold, "article %v bought by %v", id,
			article.Buyer().Hex())
	}
	if caller == article.Seller() {
		return nil, errors.Wrapf(model.ErrSelfPurchase, "article %v, seller %v", id, caller.Hex())
	}
	if payment == nil || payment.Cmp(article.Price()) != 0 {
		return nil, errors.Wrapf(model.ErrPriceMismatch, "article %v, price %v, payment %v", id,
			article.Price(), payment)
	}

	// Stage everything, move the funds, then commit
	sold := article.Copy()
	sold.SetBuyer(caller)
	remaining := removeID(l.forSale, id)

	err := l.transferer.Transfer(caller, article.Seller(), payment)
	if err != nil {
		return nil, errors.Wrapf(err, "transfer for article %v", id)
	}

	l.articles[id] = sold
	l.forSale = remaining

	log.V(2).Infof("Article %v bought by %v from %v", id, caller.Hex(), sold.Seller().Hex())
	return l.nextNotification(model.NewBuyNotification(sold, l.clock(), l.sequence)), nil
}

// Kill permanently retires the ledger. Only the owner can call it. Calling it
// again on a retired ledger is a no-op.
func (l *Ledger) Kill(caller common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return errors.Wrapf(model.ErrUnauthorized, "caller %v", caller.Hex())
	}
	if !l.retired {
		log.Infof("Ledger retired by owner %v", caller.Hex())
	}
	l.retired = true
	return nil
}

// Retired returns true if the owner has retired the ledger
func (l *Ledger) Retired() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.retired
}

// NumberOfArticles returns the number of articles ever listed, which is also
// the highest id issued
func (l *Ledger) NumberOfArticles() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.articleCount
}

// ArticlesForSale returns the ids of the articles currently for sale, ascending
func (l *Ledger) ArticlesForSale() []uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]uint64, len(l.forSale))
	copy(ids, l.forSale)
	return ids
}

// Article returns a snapshot of the article with the given id
func (l *Ledger) Article(id uint64) (*model.Article, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	article, ok := l.articles[id]
	if !ok {
		return nil, errors.Wrapf(model.ErrArticleNotFound, "article %v", id)
	}
	return article.Copy(), nil
}

// LatestArticle returns a snapshot of the most recently listed article. On a
// ledger with no articles it returns an article with empty values.
func (l *Ledger) LatestArticle() *model.Article {
	l.mu.Lock()
	defer l.mu.Unlock()
	article, ok := l.articles[l.articleCount]
	if !ok {
		return model.NewArticle(&model.ArticleParams{})
	}
	return article.Copy()
}

// nextNotification must be called with the lock held, after the call committed
func (l *Ledger) nextNotification(event *model.ArticleEvent) *model.ArticleEvent {
	l.sequence++
	return event
}

// unlockAndNotify releases the state lock and delivers the event, if any.
// Events are delivered one at a time in sequence order, outside the state
// lock, so sinks may query the ledger. A sink must not sell or buy from within
// Notify.
func (l *Ledger) unlockAndNotify(event *model.ArticleEvent) {
	l.mu.Unlock()
	if event == nil {
		return
	}

	l.notifyMu.Lock()
	defer func() {
		l.delivered++
		l.notifyCond.Broadcast()
		l.notifyMu.Unlock()
	}()
	for l.delivered != event.Sequence() {
		l.notifyCond.Wait()
	}
	if l.sink != nil {
		l.sink.Notify(event)
	}
}

func removeID(ids []uint64, id uint64) []uint64 {
	remaining := make([]uint64, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			remaining = append(remaining, existing)
		}
	}
	return remaining
}
