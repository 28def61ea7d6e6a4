package processormain

import (
	"fmt"
	"time"

	log "github.com/golang/glog"

	"github.com/robfig/cron"

	"github.com/joincivil/civil-chainlist/pkg/helpers"
	"github.com/joincivil/civil-chainlist/pkg/processor"
	"github.com/joincivil/civil-chainlist/pkg/utils"
)

const (
	checkRunSecs = 5
)

func checkCron(cr *cron.Cron) {
	entries := cr.Entries()
	for _, entry := range entries {
		log.Infof("Proc run times: prev: %v, next: %v\n", entry.Prev, entry.Next)
	}
}

// NewProcessorCron returns a cron that runs the processor on the configured
// schedule. The cron is not started.
func NewProcessorCron(config *utils.ProcessorConfig, persisters *InitializedPersisters,
	proc *processor.EventProcessor) (*cron.Cron, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(config.CronConfig)
	if err != nil {
		return nil, fmt.Errorf("Invalid cron config: '%v': err: %v", config.CronConfig, err)
	}
	cr := cron.New()
	cr.Schedule(schedule, cron.FuncJob(func() { RunProcessor(proc, persisters) }))
	return cr, nil
}

// ProcessorCronMain contains the logic to run the processor using a cronjob.
// Blocks until quit is closed.
func ProcessorCronMain(config *utils.ProcessorConfig, persisters *InitializedPersisters,
	quit <-chan bool) error {
	ps, err := helpers.PubSub(config)
	if err != nil {
		return fmt.Errorf("Error initializing pubsub: err: %v", err)
	}
	var proc *processor.EventProcessor
	if ps != nil {
		defer ps.Close() // nolint: errcheck
		proc = NewProcessor(config, persisters, ps)
	} else {
		proc = NewProcessor(config, persisters, nil)
	}

	cr, err := NewProcessorCron(config, persisters, proc)
	if err != nil {
		return err
	}
	cr.Start()
	defer cr.Stop()

	// Blocks here while the cron process runs
	ticker := time.NewTicker(checkRunSecs * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			checkCron(cr)
		case <-quit:
			log.Infof("Quitting")
			return nil
		}
	}
}
