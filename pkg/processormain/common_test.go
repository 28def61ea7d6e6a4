package processormain_test

import (
	"math/big"
	"testing"
	"time"

	gpubsub "cloud.google.com/go/pubsub"
	"github.com/ethereum/go-ethereum/common"

	"github.com/joincivil/civil-chainlist/pkg/model"
	"github.com/joincivil/civil-chainlist/pkg/processormain"
	"github.com/joincivil/civil-chainlist/pkg/testutils"
	"github.com/joincivil/civil-chainlist/pkg/utils"
)

const (
	testSeller = "0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d"
)

func returnTestEventsSameTimestamp(startID uint64, numEvents int, ts int64) []*model.ArticleEvent {
	events := make([]*model.ArticleEvent, numEvents)
	for i := 0; i < numEvents; i++ {
		events[i] = model.NewArticleEvent(&model.ArticleEventParams{
			EventType: model.EventTypeSellArticle,
			ArticleID: startID + uint64(i),
			Seller:    common.HexToAddress(testSeller),
			Name:      "article",
			Price:     big.NewInt(10),
			Timestamp: ts,
			Sequence:  startID + uint64(i),
		})
	}
	return events
}

func setupPersisters() (*testutils.TestPersister, *processormain.InitializedPersisters) {
	persister := &testutils.TestPersister{}
	return persister, &processormain.InitializedPersisters{
		Cron:    persister,
		Event:   persister,
		Listing: persister,
	}
}

func TestSaveLastEventInformation(t *testing.T) {
	testCronPersister := &testutils.TestPersister{}
	events := returnTestEventsSameTimestamp(0, 3, 1000)
	events = append(events, returnTestEventsSameTimestamp(3, 4, 1001)...)
	err := processormain.SaveLastEventInformation(testCronPersister, events, 0)
	if err != nil {
		t.Errorf("Error saving last event info, err: %v", err)
	}

	hashes, _ := testCronPersister.EventHashesOfLastTimestampForCron()
	if len(hashes) != 4 {
		t.Errorf("Number of hashes returned for timestamp should be %v but is %v", 4, len(hashes))
	}
	ts, _ := testCronPersister.TimestampOfLastEventForCron()
	if ts != 1001 {
		t.Errorf("Should have saved the last timestamp: %v", ts)
	}
}

func TestSaveLastEventInformationSameTimestamp(t *testing.T) {
	testCronPersister := &testutils.TestPersister{}
	first := returnTestEventsSameTimestamp(0, 2, 1000)
	err := processormain.SaveLastEventInformation(testCronPersister, first, 0)
	if err != nil {
		t.Errorf("Error saving last event info, err: %v", err)
	}
	more := returnTestEventsSameTimestamp(2, 1, 1000)
	err = processormain.SaveLastEventInformation(testCronPersister, more, 1000)
	if err != nil {
		t.Errorf("Error saving last event info, err: %v", err)
	}
	hashes, _ := testCronPersister.EventHashesOfLastTimestampForCron()
	if len(hashes) != 3 {
		t.Errorf("Should have kept the hashes already seen at the timestamp: %v", len(hashes))
	}
}

func TestInitNullPersisters(t *testing.T) {
	config := &utils.ProcessorConfig{PersisterType: utils.PersisterTypeNone}
	persisters, err := processormain.InitPersisters(config)
	if err != nil {
		t.Fatalf("Should have initialized persisters: err: %v", err)
	}
	if persisters.Cron == nil || persisters.Event == nil || persisters.Listing == nil {
		t.Errorf("Should have set all persisters")
	}
}

func TestRunProcessorSkipsSeenEvents(t *testing.T) {
	persister, persisters := setupPersisters()
	proc := processormain.NewProcessor(&utils.ProcessorConfig{}, persisters, nil)

	persister.SaveEvents(returnTestEventsSameTimestamp(1, 2, 1000))
	processormain.RunProcessor(proc, persisters)
	listings, _ := persister.ArticleListingsByCriteria(&model.ArticleListingCriteria{})
	if len(listings) != 2 {
		t.Errorf("Should have created 2 listings: %v", len(listings))
	}

	// Same timestamp as the last run, only the new event should be processed
	persister.SaveEvents(returnTestEventsSameTimestamp(3, 1, 1000))
	processormain.RunProcessor(proc, persisters)
	listings, _ = persister.ArticleListingsByCriteria(&model.ArticleListingCriteria{})
	if len(listings) != 3 {
		t.Errorf("Should have created the new listing: %v", len(listings))
	}
	hashes, _ := persister.EventHashesOfLastTimestampForCron()
	if len(hashes) != 3 {
		t.Errorf("Should have saved all hashes for the timestamp: %v", len(hashes))
	}
}

func TestRunProcessorPubSub(t *testing.T) {
	persister, persisters := setupPersisters()
	proc := processormain.NewProcessor(&utils.ProcessorConfig{}, persisters, nil)
	persister.SaveEvents(returnTestEventsSameTimestamp(1, 2, 1000))

	messages := make(chan *gpubsub.Message, 2)
	quit := make(chan bool)
	messages <- &gpubsub.Message{Data: []byte("not json")}
	messages <- &gpubsub.Message{Data: []byte(`{"hash":"0xabc","timestamp":1000}`)}
	close(messages)

	done := make(chan struct{})
	go func() {
		processormain.RunProcessorPubSub(persisters, messages, proc, quit)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Should have stopped when the channel closed")
	}

	listings, _ := persister.ArticleListingsByCriteria(&model.ArticleListingCriteria{})
	if len(listings) != 2 {
		t.Errorf("Should have processed the events on the trigger: %v", len(listings))
	}
}

func TestNewProcessorCron(t *testing.T) {
	_, persisters := setupPersisters()
	config := &utils.ProcessorConfig{CronConfig: "*/5 * * * *"}
	proc := processormain.NewProcessor(config, persisters, nil)
	cr, err := processormain.NewProcessorCron(config, persisters, proc)
	if err != nil {
		t.Fatalf("Should have created the cron: err: %v", err)
	}
	if len(cr.Entries()) != 1 {
		t.Errorf("Should have scheduled the processor")
	}

	config.CronConfig = "* *"
	_, err = processormain.NewProcessorCron(config, persisters, proc)
	if err == nil {
		t.Errorf("Should have failed on a bad cron config")
	}
}
