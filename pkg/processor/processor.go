// Package processor contains the processing of ledger notifications into
// aggregated article listings.
package processor

import (
	log "github.com/golang/glog"

	"github.com/joincivil/civil-chainlist/pkg/model"
	"github.com/joincivil/civil-chainlist/pkg/pubsub"
)

// NewEventProcessorParams are the params to init an EventProcessor
type NewEventProcessorParams struct {
	ListingPersister model.ArticleListingPersister
	// Publisher can be nil, in which case processed events are not published
	Publisher       pubsub.Publisher
	PubSubTopicName string
}

// NewEventProcessor is a convenience function to init an EventProcessor
func NewEventProcessor(params *NewEventProcessorParams) *EventProcessor {
	chainList := NewChainListEventProcessor(params.ListingPersister)
	return &EventProcessor{
		chainList:       chainList,
		publisher:       params.Publisher,
		pubSubTopicName: params.PubSubTopicName,
	}
}

// EventProcessor handles the processing of ledger notifications into aggregated
// data for use via the API.
type EventProcessor struct {
	chainList       *ChainListEventProcessor
	publisher       pubsub.Publisher
	pubSubTopicName string
}

// Process runs the processor with the given set of notifications. Every
// event is attempted; returns the last error if one has occurred.
func (e *EventProcessor) Process(events []*model.ArticleEvent) error {
	var lastErr error
	for _, event := range events {
		ran, err := e.chainList.Process(event)
		if err != nil {
			log.Errorf("Error processing chainlist event: err: %v\n", err)
			lastErr = err
			continue
		}
		if !ran {
			log.Infof("Skipping unhandled event %v", event.EventType())
			continue
		}
		pubErr := e.pubSub(event)
		if pubErr != nil {
			log.Errorf("Error publishing processed event: err: %v\n", pubErr)
		}
	}
	return lastErr
}
