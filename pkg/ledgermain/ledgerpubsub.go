// Package ledgermain contains the logic to serve the marketplace ledger,
// executing signed calls received over pubsub.
package ledgermain

import (
	"errors"
	"fmt"
	"runtime"

	log "github.com/golang/glog"

	gpubsub "cloud.google.com/go/pubsub"

	"github.com/joincivil/civil-chainlist/pkg/helpers"
	"github.com/joincivil/civil-chainlist/pkg/host"
	"github.com/joincivil/civil-chainlist/pkg/pubsub"
	"github.com/joincivil/civil-chainlist/pkg/utils"
)

// RunLedgerPubSub executes the signed call in every message received on
// messages, until messages is closed or quit is signalled. If publisher is
// non-nil and receiptsTopic is set, a receipt is published for every call.
func RunLedgerPubSub(executor *host.Executor, messages <-chan *gpubsub.Message,
	publisher pubsub.Publisher, receiptsTopic string, quit <-chan bool) {
Loop:
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				log.Infof("Subscription channel closed")
				break Loop
			}

			signed, err := host.DecodeSignedCall(msg.Data)
			if err != nil {
				log.Errorf("Error decoding call from message %v: err: %v", msg.ID, err)
				continue
			}

			receipt, err := executor.Execute(signed)
			if err != nil {
				log.Infof("Call %v failed: err: %v", signed.TxHash().Hex(), err)
			} else {
				log.Infof("Call %v %v succeeded for %v", signed.TxHash().Hex(),
					receipt.Method, receipt.Sender.Hex())
			}

			if publisher == nil || receiptsTopic == "" {
				continue
			}
			pubErr := pubsub.PublishReceipt(publisher, receiptsTopic,
				pubsub.NewReceiptMessage(signed.TxHash(), receipt, err))
			if pubErr != nil {
				log.Errorf("Error publishing receipt for %v: err: %v", signed.TxHash().Hex(), pubErr)
			}

		case <-quit:
			log.Infof("Quitting")
			break Loop
		}
	}
}

// LedgerPubSubMain deploys a ledger and serves it off the calls subscription.
// Notifications go to the configured event persister and topics. Blocks until
// quit is closed.
func LedgerPubSubMain(config *utils.ProcessorConfig, quit <-chan bool) error {
	err := config.ValidateLedgerServer()
	if err != nil {
		return err
	}

	eventPersister, err := helpers.EventPersister(config)
	if err != nil {
		return fmt.Errorf("Error initializing event persister: err: %v", err)
	}

	ps, err := helpers.PubSub(config)
	if err != nil {
		return fmt.Errorf("Error initializing pubsub: err: %v", err)
	}
	if ps == nil {
		return errors.New("Need PubSubProjectID")
	}
	defer ps.Close() // nolint: errcheck

	book, err := helpers.BalanceBook(config)
	if err != nil {
		return fmt.Errorf("Error initializing balances: err: %v", err)
	}
	executor := helpers.Executor(config, book, helpers.NotificationSink(config, eventPersister, ps))
	log.Infof("Ledger deployed at %v", executor.Address().Hex())

	err = ps.StartSubscribers(config.PubSubCallsSubName)
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

	RunLedgerPubSub(executor, ps.SubscribeChan, ps, config.PubSubReceiptsTopicName, quit)

	log.Infof("Done serving ledger: %v", runtime.NumGoroutine())
	return nil
}
