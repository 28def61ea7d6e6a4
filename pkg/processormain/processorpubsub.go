package processormain

import (
	"errors"
	"fmt"
	"runtime"

	log "github.com/golang/glog"

	gpubsub "cloud.google.com/go/pubsub"

	"github.com/joincivil/civil-chainlist/pkg/helpers"
	"github.com/joincivil/civil-chainlist/pkg/processor"
	"github.com/joincivil/civil-chainlist/pkg/pubsub"
	"github.com/joincivil/civil-chainlist/pkg/utils"
)

// RunProcessorPubSub runs the processor for every trigger message received
// on messages, until messages is closed or quit is signalled
func RunProcessorPubSub(persisters *InitializedPersisters, messages <-chan *gpubsub.Message,
	proc *processor.EventProcessor, quit <-chan bool) {
Loop:
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				log.Infof("Subscription channel closed")
				break Loop
			}

			trigger, err := pubsub.TriggerFromData(msg.Data)
			if err != nil {
				log.Errorf("Error processing message: err: %v", err)
				continue
			}

			lastTs, err := persisters.Cron.TimestampOfLastEventForCron()
			if err != nil {
				log.Errorf("Error getting last event timestamp: %v", err)
				continue
			}
			if trigger.Hash != "" && trigger.Timestamp < lastTs {
				log.Errorf("Timestamp %v is less than last persisted timestamp for event with hash %v",
					trigger.Timestamp, trigger.Hash)
			}

			RunProcessor(proc, persisters)
			log.Infof("Finished processing events from message\n")

		case <-quit:
			log.Infof("Quitting")
			break Loop
		}
	}
}

// ProcessorPubSubMain runs the processor off the trigger subscription. Blocks
// until quit is closed.
func ProcessorPubSubMain(config *utils.ProcessorConfig, persisters *InitializedPersisters,
	quit <-chan bool) error {
	ps, err := helpers.PubSub(config)
	if err != nil {
		return fmt.Errorf("Error initializing pubsub: err: %v", err)
	}
	if ps == nil {
		return errors.New("Need PubSubProjectID")
	}
	defer ps.Close() // nolint: errcheck

	if config.PubSubTriggerSubName == "" {
		return errors.New("Pubsub subscription name should be specified")
	}
	err = ps.StartSubscribers(config.PubSubTriggerSubName)
	if err != nil {
		return fmt.Errorf("Error starting subscribers for pubsub: err: %v", err)
	}
	defer func() {
		err := ps.StopSubscribers()
		if err != nil {
			log.Errorf("Error stopping subscribers: err: %v", err)
		}
		log.Info("Subscribers stopped")
	}()

	proc := NewProcessor(config, persisters, ps)
	RunProcessorPubSub(persisters, ps.SubscribeChan, proc, quit)

	log.Infof("Done running processor: %v", runtime.NumGoroutine())
	return nil
}
