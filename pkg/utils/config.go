package utils

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron"
)

// PersisterType is the type of persister to use.
type PersisterType int

const (
	// PersisterTypeInvalid is an invalid persister value
	PersisterTypeInvalid PersisterType = iota

	// PersisterTypeNone is a persister that does nothing but return default values
	PersisterTypeNone

	// PersisterTypePostgresql is a persister that uses PostgreSQL as the backend
	PersisterTypePostgresql
)

var (
	// PersisterNameToType maps valid persister names to the types above
	PersisterNameToType = map[string]PersisterType{
		"none":       PersisterTypeNone,
		"postgresql": PersisterTypePostgresql,
	}
)

const (
	envVarPrefix = "processor"

	defaultVersionNumber = "1"

	usageListFormat = `The processor is configured via environment vars only. The following environment variables can be used:
{{range .}}
{{usage_key .}}
  description: {{usage_description .}}
  type:        {{usage_type .}}
  default:     {{usage_default .}}
  required:    {{usage_required .}}
{{end}}
`
)

// NOTE(PN): After envconfig populates ProcessorConfig with the environment vars,
// there is nothing preventing the ProcessorConfig fields from being mutated.

// ProcessorConfig is the master config for the processor derived from environment
// variables.
type ProcessorConfig struct {
	CronConfig    string `envconfig:"cron_config" desc:"Cron config string * * * * *. If empty, runs off pubsub triggers"`
	VersionNumber string `split_words:"true" desc:"Version of the processor tables"`

	PersisterType            PersisterType `ignored:"true"`
	PersisterTypeName        string        `split_words:"true" required:"true" desc:"Sets the persister type to use"`
	PersisterPostgresAddress string        `split_words:"true" desc:"If persister type is Postgresql, sets the address"`
	PersisterPostgresPort    int           `split_words:"true" desc:"If persister type is Postgresql, sets the port"`
	PersisterPostgresDbname  string        `split_words:"true" desc:"If persister type is Postgresql, sets the database name"`
	PersisterPostgresUser    string        `split_words:"true" desc:"If persister type is Postgresql, sets the database user"`
	PersisterPostgresPw      string        `split_words:"true" desc:"If persister type is Postgresql, sets the database password"`

	PubSubProjectID             string `envconfig:"pubsub_project_id" desc:"Sets GPubSub project ID. If not set, will not publish or subscribe to pubsub."`
	PubSubEventsTopicName       string `envconfig:"pubsub_events_topic_name" desc:"Sets GPubSub topic name for processed events. If not set, will not publish."`
	PubSubTriggerTopicName      string `envconfig:"pubsub_trigger_topic_name" desc:"Sets GPubSub topic name for processor triggers"`
	PubSubTriggerSubName        string `envconfig:"pubsub_trigger_sub_name" desc:"Sets GPubSub subscription name for processor triggers"`
	PubSubNotificationTopicName string `envconfig:"pubsub_notification_topic_name" desc:"Sets GPubSub topic name for raw ledger notifications. If not set, will not publish."`
	PubSubCallsSubName          string `envconfig:"pubsub_calls_sub_name" desc:"Sets GPubSub subscription name for signed ledger calls. Required to serve the ledger"`
	PubSubReceiptsTopicName     string `envconfig:"pubsub_receipts_topic_name" desc:"Sets GPubSub topic name for ledger call receipts. If not set, will not publish."`
	GoogleCredentialsFile       string `split_words:"true" desc:"Path to the Google service account credentials. If not set, uses the default credentials"`

	LedgerOwnerAddress string                      `split_words:"true" desc:"Hex address allowed to retire the ledger"`
	LedgerTxFeeWei     string                      `split_words:"true" default:"0" desc:"Flat fee in wei charged per ledger call"`
	LedgerTxFee        *big.Int                    `ignored:"true"`
	LedgerBalances     map[string]string           `split_words:"true" desc:"Starting balances in wei, as address:wei pairs separated by commas"`
	LedgerBalancesWei  map[common.Address]*big.Int `ignored:"true"`
}

// OutputUsage prints the usage string to os.Stdout
func (c *ProcessorConfig) OutputUsage() {
	tabs := tabwriter.NewWriter(os.Stdout, 1, 0, 4, ' ', 0)
	_ = envconfig.Usagef(envVarPrefix, c, tabs, usageListFormat) // nolint: gosec
	_ = tabs.Flush()                                             // nolint: gosec
}

// PopulateFromEnv processes the environment vars, populates ProcessorConfig
// with the respective values, and validates the values.
func (c *ProcessorConfig) PopulateFromEnv() error {
	err := envconfig.Process(envVarPrefix, c)
	if err != nil {
		return err
	}

	if c.VersionNumber == "" {
		c.VersionNumber = defaultVersionNumber
	}

	err = c.validateCronConfig()
	if err != nil {
		return err
	}

	err = c.validatePubSub()
	if err != nil {
		return err
	}

	err = c.validateLedger()
	if err != nil {
		return err
	}

	err = c.populatePersisterType()
	if err != nil {
		return err
	}

	return c.validatePersister()
}

// OwnerAddress returns the configured ledger owner address
func (c *ProcessorConfig) OwnerAddress() common.Address {
	return common.HexToAddress(c.LedgerOwnerAddress)
}

func (c *ProcessorConfig) validateCronConfig() error {
	if c.CronConfig == "" {
		return nil
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(c.CronConfig)
	if err != nil {
		return fmt.Errorf("Invalid cron config: '%v'", c.CronConfig)
	}
	return nil
}

func (c *ProcessorConfig) validatePubSub() error {
	// Without cron, the processor is driven by the trigger subscription
	if c.CronConfig != "" {
		return nil
	}
	if c.PubSubProjectID == "" {
		return errors.New("Pubsub project ID required if cron config not set")
	}
	if c.PubSubTriggerTopicName == "" || c.PubSubTriggerSubName == "" {
		return errors.New("Pubsub trigger topic and subscription required if cron config not set")
	}
	return nil
}

func (c *ProcessorConfig) validateLedger() error {
	if c.LedgerOwnerAddress != "" && !common.IsHexAddress(c.LedgerOwnerAddress) {
		return fmt.Errorf("Invalid ledger owner address: '%v'", c.LedgerOwnerAddress)
	}
	fee, ok := new(big.Int).SetString(c.LedgerTxFeeWei, 10)
	if !ok || fee.Sign() < 0 {
		return fmt.Errorf("Invalid ledger tx fee: '%v'", c.LedgerTxFeeWei)
	}
	c.LedgerTxFee = fee

	c.LedgerBalancesWei = map[common.Address]*big.Int{}
	for addr, amount := range c.LedgerBalances {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("Invalid ledger balance address: '%v'", addr)
		}
		wei, ok := new(big.Int).SetString(amount, 10)
		if !ok || wei.Sign() < 0 {
			return fmt.Errorf("Invalid ledger balance for %v: '%v'", addr, amount)
		}
		c.LedgerBalancesWei[common.HexToAddress(addr)] = wei
	}
	return nil
}

// ValidateLedgerServer checks the fields needed to serve ledger calls over
// pubsub
func (c *ProcessorConfig) ValidateLedgerServer() error {
	if c.PubSubProjectID == "" {
		return errors.New("Pubsub project ID required to serve the ledger")
	}
	if c.PubSubCallsSubName == "" {
		return errors.New("Pubsub calls subscription required to serve the ledger")
	}
	if c.LedgerOwnerAddress == "" {
		return errors.New("Ledger owner address required to serve the ledger")
	}
	return nil
}

func (c *ProcessorConfig) validatePersister() error {
	var err error
	if c.PersisterType == PersisterTypePostgresql {
		err = c.validatePostgresqlPersister()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *ProcessorConfig) validatePostgresqlPersister() error {
	if c.PersisterPostgresAddress == "" {
		return errors.New("Postgresql address required")
	}
	if c.PersisterPostgresPort == 0 {
		return errors.New("Postgresql port required")
	}
	if c.PersisterPostgresDbname == "" {
		return errors.New("Postgresql db name required")
	}
	return nil
}

func (c *ProcessorConfig) populatePersisterType() error {
	var err error
	c.PersisterType, err = PersisterTypeFromName(c.PersisterTypeName)
	return err
}

// PersisterTypeFromName returns the correct persisterType from the string name
func PersisterTypeFromName(typeStr string) (PersisterType, error) {
	pType, ok := PersisterNameToType[typeStr]
	if !ok {
		validNames := make([]string, len(PersisterNameToType))
		index := 0
		for name := range PersisterNameToType {
			validNames[index] = name
			index++
		}
		return PersisterTypeInvalid,
			fmt.Errorf("Invalid persister value: %v; valid types %v", typeStr, validNames)
	}
	return pType, nil
}
