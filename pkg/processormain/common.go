package processormain

import (
	"fmt"
	"runtime"

	log "github.com/golang/glog"

	"github.com/joincivil/civil-chainlist/pkg/helpers"
	"github.com/joincivil/civil-chainlist/pkg/model"
	"github.com/joincivil/civil-chainlist/pkg/processor"
	"github.com/joincivil/civil-chainlist/pkg/pubsub"
	"github.com/joincivil/civil-chainlist/pkg/utils"
)

// SaveLastEventInformation saves the last timestamp and event hash info to the cron table
func SaveLastEventInformation(persister model.CronPersister, events []*model.ArticleEvent,
	lastTs int64) error {
	updated := false
	numEvents := 0
	for _, event := range events {
		timestamp := event.Timestamp()
		if timestamp > lastTs {
			lastTs = timestamp
			updated = true
			numEvents = 1
		} else if timestamp == lastTs {
			numEvents++
		}
	}
	if !updated && numEvents == 0 {
		return nil
	}

	eventHashes := make([]string, 0, numEvents)
	if !updated {
		// Still at the previous timestamp, keep the hashes already seen there
		prevHashes, err := persister.EventHashesOfLastTimestampForCron()
		if err != nil {
			return fmt.Errorf("Error getting event hashes from cron table: %v", err)
		}
		eventHashes = append(eventHashes, prevHashes...)
	}
	for _, event := range events {
		if event.Timestamp() == lastTs {
			eventHashes = append(eventHashes, event.Hash())
		}
	}

	log.Infof("Updating timestamp %v, eventHashes %v", lastTs, eventHashes)
	err := persister.UpdateTimestampForCron(lastTs)
	if err != nil {
		return fmt.Errorf("Error updating timestamp in cron table: %v", err)
	}
	err = persister.UpdateEventHashesForCron(eventHashes)
	if err != nil {
		return fmt.Errorf("Error updating event hashes in cron table: %v", err)
	}
	return nil
}

// InitializedPersisters contains initialized persisters needed to run processor
type InitializedPersisters struct {
	Cron    model.CronPersister
	Event   model.EventPersister
	Listing model.ArticleListingPersister
}

// InitPersisters inits the persisters from the config file
func InitPersisters(config *utils.ProcessorConfig) (*InitializedPersisters, error) {
	persister, err := helpers.Persister(config)
	if err != nil {
		log.Errorf("Error getting the persister: %v", err)
		return nil, err
	}
	return &InitializedPersisters{
		Cron:    persister.(model.CronPersister),
		Event:   persister.(model.EventPersister),
		Listing: persister.(model.ArticleListingPersister),
	}, nil
}

// NewProcessor returns the event processor for the persisters. If publisher is
// nil or no events topic is configured, processed events are not published.
func NewProcessor(config *utils.ProcessorConfig, persisters *InitializedPersisters,
	publisher pubsub.Publisher) *processor.EventProcessor {
	params := &processor.NewEventProcessorParams{
		ListingPersister: persisters.Listing,
	}
	if publisher != nil && config.PubSubEventsTopicName != "" {
		params.Publisher = publisher
		params.PubSubTopicName = config.PubSubEventsTopicName
	}
	return processor.NewEventProcessor(params)
}

// RunProcessor runs the processor over the events since the last run
func RunProcessor(proc *processor.EventProcessor, persisters *InitializedPersisters) {
	lastTs, err := persisters.Cron.TimestampOfLastEventForCron()
	if err != nil {
		log.Errorf("Error getting last event timestamp: %v", err)
		return
	}

	lastHashes, err := persisters.Cron.EventHashesOfLastTimestampForCron()
	if err != nil {
		log.Errorf("Error getting event hashes for last timestamp seen in cron: %v", err)
		return
	}

	events, err := persisters.Event.RetrieveEvents(
		&model.RetrieveEventsCriteria{
			FromTs:        lastTs,
			ExcludeHashes: lastHashes,
		},
	)
	if err != nil {
		log.Errorf("Error retrieving events: err: %v", err)
		return
	}

	if len(events) > 0 {
		err = proc.Process(events)
		if err != nil {
			log.Errorf("Error processing events: err: %v", err)
		}

		err = SaveLastEventInformation(persisters.Cron, events, lastTs)
		if err != nil {
			log.Errorf("Error saving last seen event info %v: err: %v", lastTs, err)
			return
		}
	}

	log.Infof("Done running processor: %v", runtime.NumGoroutine())
}
