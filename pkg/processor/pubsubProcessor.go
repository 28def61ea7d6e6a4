package processor

import (
	"github.com/joincivil/civil-chainlist/pkg/model"
	"github.com/joincivil/civil-chainlist/pkg/pubsub"
)

func (e *EventProcessor) pubSubEnabled() bool {
	return e.publisher != nil && e.pubSubTopicName != ""
}

func (e *EventProcessor) pubSub(event *model.ArticleEvent) error {
	if !e.pubSubEnabled() {
		return nil
	}
	return pubsub.PublishArticleEvent(e.publisher, e.pubSubTopicName, event)
}
