// Package pubsub contains a thin wrapper around Google Pub/Sub and the
// messages the chainlist services exchange over it.
package pubsub // import "github.com/joincivil/civil-chainlist/pkg/pubsub"

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/golang/glog"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

const (
	subscribeChanBuffer = 10
)

// GooglePubSub publishes to topics and receives from a subscription on a
// single Google Pub/Sub project
type GooglePubSub struct {
	ctx    context.Context
	client *pubsub.Client

	topicsMutex sync.Mutex
	topics      map[string]*pubsub.Topic

	// SubscribeChan receives messages from the started subscriber. Messages
	// are acked once delivered on the channel.
	SubscribeChan chan *pubsub.Message
	subCancel     context.CancelFunc
	subWg         sync.WaitGroup
}

// NewGooglePubSub returns a new GooglePubSub for the project. If credsFile is
// empty, the default credentials are used.
func NewGooglePubSub(projectID string, credsFile string) (*GooglePubSub, error) {
	ctx := context.Background()
	opts := []option.ClientOption{}
	if credsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credsFile))
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating pubsub client: err: %v", err)
	}
	return &GooglePubSub{
		ctx:    ctx,
		client: client,
		topics: map[string]*pubsub.Topic{},
	}, nil
}

// Publish publishes data to the topic and blocks until the server acks it
func (g *GooglePubSub) Publish(topicName string, data []byte, attributes map[string]string) error {
	topic := g.topic(topicName)
	result := topic.Publish(g.ctx, &pubsub.Message{
		Data:       data,
		Attributes: attributes,
	})
	id, err := result.Get(g.ctx)
	if err != nil {
		return fmt.Errorf("Error publishing to %v: err: %v", topicName, err)
	}
	log.V(2).Infof("Published message %v to %v", id, topicName)
	return nil
}

// StopPublishers flushes and stops all the topics used for publishing
func (g *GooglePubSub) StopPublishers() {
	g.topicsMutex.Lock()
	defer g.topicsMutex.Unlock()
	for name, topic := range g.topics {
		topic.Stop()
		delete(g.topics, name)
	}
}

// StartSubscribers starts receiving from the subscription and delivers the
// messages on SubscribeChan
func (g *GooglePubSub) StartSubscribers(subName string) error {
	if g.subCancel != nil {
		return errors.New("Subscribers already started")
	}
	sub := g.client.Subscription(subName)
	exists, err := sub.Exists(g.ctx)
	if err != nil {
		return fmt.Errorf("Error checking subscription %v: err: %v", subName, err)
	}
	if !exists {
		return fmt.Errorf("Subscription %v does not exist", subName)
	}

	ctx, cancel := context.WithCancel(g.ctx)
	g.subCancel = cancel
	g.SubscribeChan = make(chan *pubsub.Message, subscribeChanBuffer)

	g.subWg.Add(1)
	go func() {
		defer g.subWg.Done()
		defer close(g.SubscribeChan)
		err := sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
			select {
			case g.SubscribeChan <- msg:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
			}
		})
		if err != nil {
			log.Errorf("Error receiving from %v: err: %v", subName, err)
		}
	}()
	return nil
}

// StopSubscribers stops the subscriber and waits for it to exit
func (g *GooglePubSub) StopSubscribers() error {
	if g.subCancel == nil {
		return errors.New("Subscribers not started")
	}
	g.subCancel()
	g.subWg.Wait()
	g.subCancel = nil
	return nil
}

// Close stops the publishers and closes the client
func (g *GooglePubSub) Close() error {
	g.StopPublishers()
	return g.client.Close()
}

func (g *GooglePubSub) topic(topicName string) *pubsub.Topic {
	g.topicsMutex.Lock()
	defer g.topicsMutex.Unlock()
	topic, ok := g.topics[topicName]
	if !ok {
		topic = g.client.Topic(topicName)
		g.topics[topicName] = topic
	}
	return topic
}
