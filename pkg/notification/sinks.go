// Package notification contains the sinks ledger notifications are delivered
// to. A failing sink never affects the committed call, so sinks log their
// errors instead of returning them.
package notification // import "github.com/joincivil/civil-chainlist/pkg/notification"

import (
	log "github.com/golang/glog"

	"github.com/joincivil/civil-chainlist/pkg/model"
	"github.com/joincivil/civil-chainlist/pkg/pubsub"
)

// NewPersisterSink returns a sink that stores notifications in the event persister
func NewPersisterSink(persister model.EventPersister) *PersisterSink {
	return &PersisterSink{persister: persister}
}

// PersisterSink stores each notification it receives
type PersisterSink struct {
	persister model.EventPersister
}

// Notify saves the event
func (s *PersisterSink) Notify(event *model.ArticleEvent) {
	errs := s.persister.SaveEvents([]*model.ArticleEvent{event})
	for _, err := range errs {
		if err != nil {
			log.Errorf("Error saving event %v: err: %v", event.Hash(), err)
		}
	}
}

// NewPubSubSink returns a sink that publishes notifications to the topic
func NewPubSubSink(publisher pubsub.Publisher, topicName string) *PubSubSink {
	return &PubSubSink{publisher: publisher, topicName: topicName}
}

// PubSubSink publishes each notification it receives as a JSON message
type PubSubSink struct {
	publisher pubsub.Publisher
	topicName string
}

// Notify publishes the event
func (s *PubSubSink) Notify(event *model.ArticleEvent) {
	err := pubsub.PublishArticleEvent(s.publisher, s.topicName, event)
	if err != nil {
		log.Errorf("Error publishing event %v: err: %v", event.Hash(), err)
		return
	}
	log.Infof("Published %v for article %v", event.EventType(), event.ArticleID())
}

// NewTriggerSink returns a sink that publishes a processor trigger to the topic
// for each notification
func NewTriggerSink(publisher pubsub.Publisher, topicName string) *TriggerSink {
	return &TriggerSink{publisher: publisher, topicName: topicName}
}

// TriggerSink asks the processor to run whenever a notification is emitted.
// Should come after the sink persisting the notification.
type TriggerSink struct {
	publisher pubsub.Publisher
	topicName string
}

// Notify publishes a trigger identifying the event
func (s *TriggerSink) Notify(event *model.ArticleEvent) {
	trigger := &pubsub.TriggerMessage{
		Hash:      event.Hash(),
		Timestamp: event.Timestamp(),
	}
	err := pubsub.PublishTrigger(s.publisher, s.topicName, trigger)
	if err != nil {
		log.Errorf("Error publishing trigger for event %v: err: %v", event.Hash(), err)
	}
}

// NewMultiSink returns a sink that delivers to every given sink in order
func NewMultiSink(sinks ...model.NotificationSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// MultiSink fans notifications out to multiple sinks
type MultiSink struct {
	sinks []model.NotificationSink
}

// Notify delivers the event to each sink
func (s *MultiSink) Notify(event *model.ArticleEvent) {
	for _, sink := range s.sinks {
		sink.Notify(event)
	}
}
