// Package host contains the boundary between callers and the marketplace
// ledger. It authenticates the caller of each call from its signature, charges
// the per call fee and serializes calls into the ledger.
package host // import "github.com/joincivil/civil-chainlist/pkg/host"

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

const (
	// MethodSellArticle lists a new article
	MethodSellArticle = "sellArticle"
	// MethodBuyArticle buys a listed article
	MethodBuyArticle = "buyArticle"
	// MethodKill retires the ledger
	MethodKill = "kill"
)

var (
	// ErrInvalidSignature is returned when the caller cannot be recovered
	ErrInvalidSignature = errors.New("invalid call signature")
	// ErrInvalidNonce is returned for replayed or out of order calls
	ErrInvalidNonce = errors.New("invalid call nonce")
	// ErrUnknownMethod is returned for calls to methods the ledger does not have
	ErrUnknownMethod = errors.New("unknown method")
	// ErrNonPayable is returned when value is attached to a method that does
	// not accept it
	ErrNonPayable = errors.New("method does not accept value")
)

// Call is a request to run a ledger method. The caller is never part of the
// call; it is recovered from the signature.
type Call struct {
	Method      string
	ArticleID   uint64
	Name        string
	Description string
	Price       *big.Int
	Value       *big.Int
	Nonce       uint64
}

// NewSellArticleCall returns a call to list an article
func NewSellArticleCall(name string, description string, price *big.Int, nonce uint64) *Call {
	return &Call{
		Method:      MethodSellArticle,
		Name:        name,
		Description: description,
		Price:       price,
		Value:       new(big.Int),
		Nonce:       nonce,
	}
}

// NewBuyArticleCall returns a call to buy an article with the attached value
func NewBuyArticleCall(articleID uint64, value *big.Int, nonce uint64) *Call {
	return &Call{
		Method:    MethodBuyArticle,
		ArticleID: articleID,
		Price:     new(big.Int),
		Value:     value,
		Nonce:     nonce,
	}
}

// NewKillCall returns a call to retire the ledger
func NewKillCall(nonce uint64) *Call {
	return &Call{
		Method: MethodKill,
		Price:  new(big.Int),
		Value:  new(big.Int),
		Nonce:  nonce,
	}
}

// SigHash returns the hash that is signed by the caller
func (c *Call) SigHash() (common.Hash, error) {
	encoded, err := rlp.EncodeToBytes(c)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "unable to encode call")
	}
	return crypto.Keccak256Hash(encoded), nil
}

// SignedCall is a Call along with the caller's signature of its SigHash
type SignedCall struct {
	Call      *Call
	Signature []byte
}

// SignCall signs the call with the given key
func SignCall(call *Call, key *ecdsa.PrivateKey) (*SignedCall, error) {
	hash, err := call.SigHash()
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return nil, errors.Wrap(err, "unable to sign call")
	}
	return &SignedCall{Call: call, Signature: sig}, nil
}

// Sender recovers the address that signed the call
func (s *SignedCall) Sender() (common.Address, error) {
	hash, err := s.Call.SigHash()
	if err != nil {
		return common.Address{}, err
	}
	pub, err := crypto.SigToPub(hash.Bytes(), s.Signature)
	if err != nil {
		return common.Address{}, errors.Wrap(ErrInvalidSignature, err.Error())
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// EncodeSignedCall returns the RLP encoding of the signed call, as sent over
// the wire
func EncodeSignedCall(s *SignedCall) ([]byte, error) {
	data, err := rlp.EncodeToBytes(s)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode signed call")
	}
	return data, nil
}

// DecodeSignedCall decodes a signed call encoded with EncodeSignedCall
func DecodeSignedCall(data []byte) (*SignedCall, error) {
	s := &SignedCall{}
	err := rlp.DecodeBytes(data, s)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode signed call")
	}
	if s.Call == nil {
		return nil, errors.New("signed call has no call")
	}
	return s, nil
}

// TxHash returns the hash identifying this signed call
func (s *SignedCall) TxHash() common.Hash {
	hash, err := s.Call.SigHash()
	if err != nil {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(hash.Bytes(), s.Signature)
}
