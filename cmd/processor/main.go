package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/golang/glog"

	"github.com/joincivil/civil-chainlist/pkg/processormain"
	"github.com/joincivil/civil-chainlist/pkg/utils"
)

func setupKillNotify(quit chan<- bool) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		close(quit)
	}()
}

func main() {
	config := &utils.ProcessorConfig{}
	flag.Usage = func() {
		config.OutputUsage()
		os.Exit(0)
	}
	flag.Parse()

	err := config.PopulateFromEnv()
	if err != nil {
		config.OutputUsage()
		log.Errorf("Invalid processor config: err: %v\n", err)
		os.Exit(2)
	}

	persisters, err := processormain.InitPersisters(config)
	if err != nil {
		log.Errorf("Error initializing persister: err: %v", err)
		os.Exit(2)
	}

	quit := make(chan bool)
	setupKillNotify(quit)

	if config.CronConfig != "" {
		err = processormain.ProcessorCronMain(config, persisters, quit)
	} else {
		err = processormain.ProcessorPubSubMain(config, persisters, quit)
	}
	if err != nil {
		log.Errorf("Error running processor: err: %v", err)
		log.Flush()
		os.Exit(1)
	}
	log.Flush()
}
