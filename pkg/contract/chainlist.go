// Package contract contains the ChainList contract ABI and the conversion
// between ledger notifications and Ethereum logs.
package contract // import "github.com/joincivil/civil-chainlist/pkg/contract"

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/joincivil/civil-chainlist/pkg/model"
)

// ChainListContractName is the name of the contract the ledger implements
const ChainListContractName = "ChainListContract"

// ChainListABI is the ABI of the ChainList contract
const ChainListABI = `[
{"constant":false,"inputs":[{"name":"_name","type":"string"},{"name":"_description","type":"string"},{"name":"_price","type":"uint256"}],"name":"sellArticle","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"},
{"constant":false,"inputs":[{"name":"_id","type":"uint256"}],"name":"buyArticle","outputs":[],"payable":true,"stateMutability":"payable","type":"function"},
{"constant":false,"inputs":[],"name":"kill","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"},
{"constant":true,"inputs":[],"name":"getNumberOfArticles","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"getArticlesForSale","outputs":[{"name":"","type":"uint256[]"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"","type":"uint256"}],"name":"articles","outputs":[{"name":"id","type":"uint256"},{"name":"seller","type":"address"},{"name":"buyer","type":"address"},{"name":"name","type":"string"},{"name":"description","type":"string"},{"name":"price","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
{"anonymous":false,"inputs":[{"indexed":true,"name":"_id","type":"uint256"},{"indexed":true,"name":"_seller","type":"address"},{"indexed":false,"name":"_name","type":"string"},{"indexed":false,"name":"_price","type":"uint256"}],"name":"LogSellArticle","type":"event"},
{"anonymous":false,"inputs":[{"indexed":true,"name":"_id","type":"uint256"},{"indexed":true,"name":"_seller","type":"address"},{"indexed":true,"name":"_buyer","type":"address"},{"indexed":false,"name":"_name","type":"string"},{"indexed":false,"name":"_price","type":"uint256"}],"name":"LogBuyArticle","type":"event"}
]`

// ParsedChainListABI returns the parsed ChainList ABI
func ParsedChainListABI() (*abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(ChainListABI))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// LogCodec converts between ledger notifications and Ethereum logs emitted
// from the given contract address
type LogCodec struct {
	abi     *abi.ABI
	address common.Address
}

// NewLogCodec returns a LogCodec for logs from the given address
func NewLogCodec(address common.Address) (*LogCodec, error) {
	parsed, err := ParsedChainListABI()
	if err != nil {
		return nil, fmt.Errorf("Error parsing ChainList ABI: err: %v", err)
	}
	return &LogCodec{abi: parsed, address: address}, nil
}

// LogFromEvent encodes the notification as a log. Indexed fields go in the
// topics, the name and price are ABI encoded in the data.
func (c *LogCodec) LogFromEvent(event *model.ArticleEvent) (*types.Log, error) {
	abiEvent, ok := c.abi.Events[event.EventType()]
	if !ok {
		return nil, fmt.Errorf("Unknown event type: %v", event.EventType())
	}
	data, err := abiEvent.Inputs.NonIndexed().Pack(event.Name(), event.Price())
	if err != nil {
		return nil, fmt.Errorf("Error packing %v data: err: %v", event.EventType(), err)
	}

	topics := []common.Hash{
		abiEvent.ID,
		common.BigToHash(new(big.Int).SetUint64(event.ArticleID())),
		common.BytesToHash(event.Seller().Bytes()),
	}
	if event.EventType() == model.EventTypeBuyArticle {
		topics = append(topics, common.BytesToHash(event.Buyer().Bytes()))
	}

	return &types.Log{
		Address: c.address,
		Topics:  topics,
		Data:    data,
		Index:   uint(event.Sequence()),
	}, nil
}

// EventFromLog decodes a log from the ChainList contract into a notification
func (c *LogCodec) EventFromLog(log *types.Log, timestamp int64) (*model.ArticleEvent, error) {
	if log.Address != c.address {
		return nil, fmt.Errorf("Log not from contract %v: %v", c.address.Hex(), log.Address.Hex())
	}
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("Log has no topics")
	}
	abiEvent, err := c.abi.EventByID(log.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("Unknown event id %v: err: %v", log.Topics[0].Hex(), err)
	}

	expectedTopics := 3
	if abiEvent.Name == model.EventTypeBuyArticle {
		expectedTopics = 4
	}
	if len(log.Topics) != expectedTopics {
		return nil, fmt.Errorf("Expected %v topics for %v, got %v", expectedTopics,
			abiEvent.Name, len(log.Topics))
	}

	payload := map[string]interface{}{}
	err = abiEvent.Inputs.NonIndexed().UnpackIntoMap(payload, log.Data)
	if err != nil {
		return nil, fmt.Errorf("Error unpacking %v data: err: %v", abiEvent.Name, err)
	}
	name, ok := payload["_name"].(string)
	if !ok {
		return nil, fmt.Errorf("No name found")
	}
	price, ok := payload["_price"].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("No price found")
	}

	params := &model.ArticleEventParams{
		EventType: abiEvent.Name,
		ArticleID: new(big.Int).SetBytes(log.Topics[1].Bytes()).Uint64(),
		Seller:    common.BytesToAddress(log.Topics[2].Bytes()),
		Name:      name,
		Price:     price,
		Timestamp: timestamp,
		Sequence:  uint64(log.Index),
	}
	if abiEvent.Name == model.EventTypeBuyArticle {
		params.Buyer = common.BytesToAddress(log.Topics[3].Bytes())
	}
	return model.NewArticleEvent(params), nil
}
