// Package transfer contains the value transfer rail used to move payments
// between accounts.
package transfer // import "github.com/joincivil/civil-chainlist/pkg/transfer"

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joincivil/civil-chainlist/pkg/model"
)

// NewBalanceBook returns an empty BalanceBook
func NewBalanceBook() *BalanceBook {
	return &BalanceBook{
		balances: map[common.Address]*big.Int{},
	}
}

// BalanceBook tracks wei balances per address. Implements model.ValueTransferer.
type BalanceBook struct {
	mu       sync.RWMutex
	balances map[common.Address]*big.Int
}

// BalanceOf returns a copy of the balance of the given address
func (b *BalanceBook) BalanceOf(addr common.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return new(big.Int).Set(b.balanceOf(addr))
}

// TotalSupply returns the sum of all balances
func (b *BalanceBook) TotalSupply() *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := new(big.Int)
	for _, balance := range b.balances {
		total.Add(total, balance)
	}
	return total
}

// Credit adds the amount to the address
func (b *BalanceBook) Credit(addr common.Address, amount *big.Int) error {
	err := validateAmount(amount)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[addr] = new(big.Int).Add(b.balanceOf(addr), amount)
	return nil
}

// Debit removes the amount from the address. Fails with
// model.ErrInsufficientFunds if the balance cannot cover it.
func (b *BalanceBook) Debit(addr common.Address, amount *big.Int) error {
	err := validateAmount(amount)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	balance := b.balanceOf(addr)
	if balance.Cmp(amount) < 0 {
		return errors.Wrapf(model.ErrInsufficientFunds, "%v has %v, needs %v", addr.Hex(),
			balance, amount)
	}
	b.balances[addr] = new(big.Int).Sub(balance, amount)
	return nil
}

// Transfer moves the amount from one address to another. Either the full
// amount moves or nothing does.
func (b *BalanceBook) Transfer(from common.Address, to common.Address, amount *big.Int) error {
	err := validateAmount(amount)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	fromBalance := b.balanceOf(from)
	if fromBalance.Cmp(amount) < 0 {
		return errors.Wrapf(model.ErrInsufficientFunds, "%v has %v, needs %v", from.Hex(),
			fromBalance, amount)
	}
	b.balances[from] = new(big.Int).Sub(fromBalance, amount)
	b.balances[to] = new(big.Int).Add(b.balanceOf(to), amount)
	return nil
}

func (b *BalanceBook) balanceOf(addr common.Address) *big.Int {
	balance, ok := b.balances[addr]
	if !ok {
		return common.Big0
	}
	return balance
}

func validateAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.Wrapf(model.ErrInvalidAmount, "amount %v", amount)
	}
	return nil
}
