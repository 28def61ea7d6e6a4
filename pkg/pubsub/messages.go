package pubsub

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joincivil/civil-chainlist/pkg/host"
	"github.com/joincivil/civil-chainlist/pkg/model"
	"github.com/joincivil/civil-chainlist/pkg/utils"
)

const (
	// MessageIDAttribute is the attribute holding a unique id per published
	// message, so consumers can drop redeliveries
	MessageIDAttribute = "messageId"

	// EventTypeAttribute is the attribute holding the event type, for
	// subscription filters
	EventTypeAttribute = "eventType"
)

// Publisher publishes data to a topic
type Publisher interface {
	Publish(topicName string, data []byte, attributes map[string]string) error
}

// ArticleEventMessage is the JSON payload published for an article event
type ArticleEventMessage struct {
	EventType  string `json:"eventType"`
	ArticleID  uint64 `json:"articleId"`
	Seller     string `json:"seller"`
	Buyer      string `json:"buyer,omitempty"`
	Name       string `json:"name"`
	PriceWei   string `json:"priceWei"`
	PriceEther string `json:"priceEther"`
	Timestamp  int64  `json:"timestamp"`
	Sequence   uint64 `json:"sequence"`
	Hash       string `json:"hash"`
}

// NewArticleEventMessage returns the message for the event
func NewArticleEventMessage(event *model.ArticleEvent) *ArticleEventMessage {
	msg := &ArticleEventMessage{
		EventType:  event.EventType(),
		ArticleID:  event.ArticleID(),
		Seller:     event.Seller().Hex(),
		Name:       event.Name(),
		PriceWei:   event.Price().String(),
		PriceEther: utils.WeiToEther(event.Price()),
		Timestamp:  event.Timestamp(),
		Sequence:   event.Sequence(),
		Hash:       event.Hash(),
	}
	if event.EventType() == model.EventTypeBuyArticle {
		msg.Buyer = event.Buyer().Hex()
	}
	return msg
}

// TriggerMessage is the JSON payload that triggers a processor run. Hash and
// Timestamp identify the newest event the sender knows of, if any.
type TriggerMessage struct {
	Hash      string `json:"hash,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// ReceiptMessage is the JSON payload published for each signed call the
// ledger server handles. Admitted is false if the call was refused before
// reaching the ledger, in which case only TxHash and Error are set.
type ReceiptMessage struct {
	TxHash      string   `json:"txHash"`
	Admitted    bool     `json:"admitted"`
	Sender      string   `json:"sender,omitempty"`
	Method      string   `json:"method,omitempty"`
	Status      uint64   `json:"status"`
	ArticleID   uint64   `json:"articleId,omitempty"`
	FeePaidWei  string   `json:"feePaidWei,omitempty"`
	EventHashes []string `json:"eventHashes,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// NewReceiptMessage returns the message for the outcome of a call. receipt is
// nil if the call was not admitted.
func NewReceiptMessage(txHash common.Hash, receipt *host.Receipt, err error) *ReceiptMessage {
	msg := &ReceiptMessage{TxHash: txHash.Hex()}
	if err != nil {
		msg.Error = err.Error()
	}
	if receipt == nil {
		return msg
	}
	msg.Admitted = true
	msg.Sender = receipt.Sender.Hex()
	msg.Method = receipt.Method
	msg.Status = receipt.Status
	msg.ArticleID = receipt.ArticleID
	if receipt.FeePaid != nil {
		msg.FeePaidWei = receipt.FeePaid.String()
	}
	for _, event := range receipt.Notifications {
		msg.EventHashes = append(msg.EventHashes, event.Hash())
	}
	return msg
}

// PublishReceipt publishes the receipt message to the topic
func PublishReceipt(publisher Publisher, topicName string, receipt *ReceiptMessage) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return err
	}
	attributes := map[string]string{
		MessageIDAttribute: uuid.New().String(),
	}
	return publisher.Publish(topicName, data, attributes)
}

// PublishArticleEvent publishes the event to the topic with a fresh message id
func PublishArticleEvent(publisher Publisher, topicName string, event *model.ArticleEvent) error {
	data, err := json.Marshal(NewArticleEventMessage(event))
	if err != nil {
		return err
	}
	attributes := map[string]string{
		MessageIDAttribute: uuid.New().String(),
		EventTypeAttribute: event.EventType(),
	}
	return publisher.Publish(topicName, data, attributes)
}

// PublishTrigger publishes a trigger message to the topic
func PublishTrigger(publisher Publisher, topicName string, trigger *TriggerMessage) error {
	data, err := json.Marshal(trigger)
	if err != nil {
		return err
	}
	attributes := map[string]string{
		MessageIDAttribute: uuid.New().String(),
	}
	return publisher.Publish(topicName, data, attributes)
}

// TriggerFromData decodes a trigger message
func TriggerFromData(data []byte) (*TriggerMessage, error) {
	trigger := &TriggerMessage{}
	err := json.Unmarshal(data, trigger)
	return trigger, err
}
