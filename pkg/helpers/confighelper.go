// Package helpers contains various common helper functions.
// Normally they are shared functions used by the cmds.
package helpers

import (
	log "github.com/golang/glog"

	"github.com/jmoiron/sqlx"

	"github.com/joincivil/civil-chainlist/pkg/host"
	"github.com/joincivil/civil-chainlist/pkg/model"
	"github.com/joincivil/civil-chainlist/pkg/notification"
	"github.com/joincivil/civil-chainlist/pkg/persistence"
	"github.com/joincivil/civil-chainlist/pkg/pubsub"
	"github.com/joincivil/civil-chainlist/pkg/transfer"
	"github.com/joincivil/civil-chainlist/pkg/utils"
)

// Persister is a helper function to return an interface{} that is a initialized
// persister type
func Persister(config *utils.ProcessorConfig) (interface{}, error) {
	if config.PersisterType == utils.PersisterTypePostgresql {
		return postgresPersister(config)
	}
	// Default to the NullPersister
	return &persistence.NullPersister{}, nil
}

// PersisterFromSqlx is a helper function to return an interface{} given an
// initialized sqlx.DB struct
func PersisterFromSqlx(db *sqlx.DB, versionNumber string) (interface{}, error) {
	persister, err := persistence.NewPostgresPersisterFromSqlx(db)
	if err != nil {
		return nil, err
	}

	err = initTablesAndData(persister, versionNumber)
	if err != nil {
		return nil, err
	}

	return persister, nil
}

// CronPersister is a helper function to return the correct cron persister based on
// the given configuration
func CronPersister(config *utils.ProcessorConfig) (model.CronPersister, error) {
	p, err := Persister(config)
	if err != nil {
		return nil, err
	}
	return p.(model.CronPersister), nil
}

// EventPersister is a helper function to return the correct event persister based on
// the given configuration
func EventPersister(config *utils.ProcessorConfig) (model.EventPersister, error) {
	p, err := Persister(config)
	if err != nil {
		return nil, err
	}
	return p.(model.EventPersister), nil
}

// ArticleListingPersister is a helper function to return the correct listing persister
// based on the given configuration
func ArticleListingPersister(config *utils.ProcessorConfig) (model.ArticleListingPersister, error) {
	p, err := Persister(config)
	if err != nil {
		return nil, err
	}
	return p.(model.ArticleListingPersister), nil
}

// PubSub is a helper function to return a GooglePubSub based on the given
// configuration. Returns nil if no project is configured.
func PubSub(config *utils.ProcessorConfig) (*pubsub.GooglePubSub, error) {
	if config.PubSubProjectID == "" {
		return nil, nil
	}
	return pubsub.NewGooglePubSub(config.PubSubProjectID, config.GoogleCredentialsFile)
}

// NotificationSink returns the sink ledger notifications are delivered to.
// Notifications are persisted, then published as is to the notification topic,
// then announced on the trigger topic. Topics are skipped if not configured or
// if publisher is nil.
func NotificationSink(config *utils.ProcessorConfig, eventPersister model.EventPersister,
	publisher pubsub.Publisher) *notification.MultiSink {
	sinks := []model.NotificationSink{notification.NewPersisterSink(eventPersister)}
	if publisher != nil && config.PubSubNotificationTopicName != "" {
		sinks = append(sinks, notification.NewPubSubSink(publisher, config.PubSubNotificationTopicName))
	}
	if publisher != nil && config.PubSubTriggerTopicName != "" {
		sinks = append(sinks, notification.NewTriggerSink(publisher, config.PubSubTriggerTopicName))
	}
	return notification.NewMultiSink(sinks...)
}

// BalanceBook returns a balance book holding the configured starting balances
func BalanceBook(config *utils.ProcessorConfig) (*transfer.BalanceBook, error) {
	book := transfer.NewBalanceBook()
	for addr, wei := range config.LedgerBalancesWei {
		err := book.Credit(addr, wei)
		if err != nil {
			return nil, err
		}
	}
	return book, nil
}

// Executor returns a host executor for a new ledger owned by the configured
// owner, charging the configured fee and delivering notifications to sink
func Executor(config *utils.ProcessorConfig, book *transfer.BalanceBook,
	sink model.NotificationSink) *host.Executor {
	log.Infof("Deploying ledger owned by %v, tx fee %v ether", config.OwnerAddress().Hex(),
		utils.WeiToEther(config.LedgerTxFee))
	return host.NewExecutor(&host.NewExecutorParams{
		Owner: config.OwnerAddress(),
		Book:  book,
		TxFee: config.LedgerTxFee,
		Sink:  sink,
		Clock: utils.CurrentEpochSecsInInt64,
	})
}

func postgresPersister(config *utils.ProcessorConfig) (*persistence.PostgresPersister, error) {
	persister, err := persistence.NewPostgresPersister(
		config.PersisterPostgresAddress,
		config.PersisterPostgresPort,
		config.PersisterPostgresUser,
		config.PersisterPostgresPw,
		config.PersisterPostgresDbname,
	)
	if err != nil {
		return nil, err
	}
	err = initTablesAndData(persister, config.VersionNumber)
	if err != nil {
		return nil, err
	}
	return persister, nil
}

func initTablesAndData(persister *persistence.PostgresPersister, versionNumber string) error {
	// Stores the version and sets the table names for it
	err := persister.InitProcessorVersion(&versionNumber)
	if err != nil {
		return err
	}
	// Attempts to create all the necessary tables here
	err = persister.CreateTables()
	if err != nil {
		return err
	}
	// Attempts to create all the necessary table indices here
	return persister.CreateIndices()
}
