package host

import (
	"math/big"
	"sync"

	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/joincivil/civil-chainlist/pkg/contract"
	"github.com/joincivil/civil-chainlist/pkg/ledger"
	"github.com/joincivil/civil-chainlist/pkg/model"
	"github.com/joincivil/civil-chainlist/pkg/transfer"
)

// Receipt is the result of an admitted call
type Receipt struct {
	TxHash        common.Hash
	Sender        common.Address
	Method        string
	Status        uint64
	ArticleID     uint64
	FeePaid       *big.Int
	Notifications []*model.ArticleEvent
	Logs          []*types.Log
	Err           error
}

// Succeeded returns true if the ledger accepted the call
func (r *Receipt) Succeeded() bool {
	return r.Status == types.ReceiptStatusSuccessful
}

// NewExecutorParams are the params to init a new Executor
type NewExecutorParams struct {
	Owner common.Address
	Book  *transfer.BalanceBook
	// TxFee is charged to the sender of every admitted call. Can be nil.
	TxFee *big.Int
	// Sink receives the notifications of successful calls, in order. Can be nil.
	Sink  model.NotificationSink
	Clock func() int64
}

// NewExecutor deploys a new ledger owned by params.Owner and returns the
// Executor running calls against it
func NewExecutor(params *NewExecutorParams) *Executor {
	fee := new(big.Int)
	if params.TxFee != nil {
		fee.Set(params.TxFee)
	}
	e := &Executor{
		book:    params.Book,
		txFee:   fee,
		sink:    params.Sink,
		nonces:  map[common.Address]uint64{},
		address: crypto.CreateAddress(params.Owner, 0),
	}
	codec, err := contract.NewLogCodec(e.address)
	if err != nil {
		log.Errorf("Error creating log codec, receipts will have no logs: err: %v", err)
	}
	e.codec = codec
	e.ledger = ledger.NewLedger(&ledger.NewLedgerParams{
		Owner:      params.Owner,
		Transferer: params.Book,
		Sink:       e,
		Clock:      params.Clock,
	})
	return e
}

// Executor runs signed calls against the ledger one at a time
type Executor struct {
	mu sync.Mutex

	ledger  *ledger.Ledger
	address common.Address
	codec   *contract.LogCodec
	book    *transfer.BalanceBook
	txFee   *big.Int
	sink    model.NotificationSink

	nonces  map[common.Address]uint64
	pending []*model.ArticleEvent
}

// Ledger returns the ledger for read only queries
func (e *Executor) Ledger() *ledger.Ledger {
	return e.ledger
}

// Address returns the address the ledger is deployed at. Receipt logs are
// emitted from it.
func (e *Executor) Address() common.Address {
	return e.address
}

// Nonce returns the nonce expected for the next call from the address
func (e *Executor) Nonce(addr common.Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nonces[addr]
}

// Notify implements model.NotificationSink for the ledger. Only invoked
// while Execute holds the lock.
func (e *Executor) Notify(event *model.ArticleEvent) {
	e.pending = append(e.pending, event)
}

// Execute authenticates and runs the call. Calls with a bad signature, a bad
// nonce or a sender that cannot pay the fee are not admitted and return no
// receipt. Admitted calls always return a receipt; if the ledger rejected the
// call the receipt is failed and the rejection is also returned as the error.
func (e *Executor) Execute(signed *SignedCall) (*Receipt, error) {
	if signed == nil || signed.Call == nil {
		return nil, errors.Wrap(ErrInvalidSignature, "missing call")
	}
	sender, err := signed.Sender()
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	call := signed.Call
	expected := e.nonces[sender]
	if call.Nonce != expected {
		return nil, errors.Wrapf(ErrInvalidNonce, "sender %v, expected %v, got %v",
			sender.Hex(), expected, call.Nonce)
	}
	err = e.book.Debit(sender, e.txFee)
	if err != nil {
		return nil, errors.Wrap(err, "unable to pay call fee")
	}
	e.nonces[sender] = expected + 1

	receipt := &Receipt{
		TxHash:  signed.TxHash(),
		Sender:  sender,
		Method:  call.Method,
		FeePaid: new(big.Int).Set(e.txFee),
	}
	e.pending = nil
	receipt.ArticleID, receipt.Err = e.dispatch(sender, call)
	if receipt.Err != nil {
		receipt.Status = types.ReceiptStatusFailed
		log.Infof("Call %v from %v rejected: err: %v", call.Method, sender.Hex(), receipt.Err)
		return receipt, receipt.Err
	}

	receipt.Status = types.ReceiptStatusSuccessful
	receipt.Notifications = e.pending
	e.pending = nil
	for _, event := range receipt.Notifications {
		if e.codec != nil {
			l, err := e.codec.LogFromEvent(event)
			if err != nil {
				log.Errorf("Error encoding log for %v: err: %v", event.Hash(), err)
			} else {
				l.TxHash = receipt.TxHash
				receipt.Logs = append(receipt.Logs, l)
			}
		}
		if e.sink != nil {
			e.sink.Notify(event)
		}
	}
	return receipt, nil
}

func (e *Executor) dispatch(sender common.Address, call *Call) (uint64, error) {
	payable := call.Method == MethodBuyArticle
	if !payable && call.Value != nil && call.Value.Sign() != 0 {
		return 0, errors.Wrapf(ErrNonPayable, "method %v", call.Method)
	}

	switch call.Method {
	case MethodSellArticle:
		return e.ledger.SellArticle(sender, call.Name, call.Description, call.Price)

	case MethodBuyArticle:
		return call.ArticleID, e.ledger.BuyArticle(sender, call.ArticleID, call.Value)

	case MethodKill:
		return 0, e.ledger.Kill(sender)

	default:
		return 0, errors.Wrapf(ErrUnknownMethod, "method %v", call.Method)
	}
}
