package main

import (
	"flag"
	"os"

	log "github.com/golang/glog"

	"github.com/joincivil/civil-chainlist/pkg/gen"
)

func main() {
	packageName := flag.String("package", "generated", "Package name of the generated code")
	output := flag.String("output", "", "Output file, stdout if empty")
	flag.Parse()

	writer := os.Stdout
	if *output != "" {
		file, err := os.Create(*output)
		if err != nil {
			log.Errorf("Error creating output file: err: %v", err)
			os.Exit(1)
		}
		writer = file
	}

	err := gen.GenerateEventLists(writer, *packageName, gen.DefaultContracts())
	if writer != os.Stdout {
		writer.Close() // nolint: errcheck
	}
	if err != nil {
		log.Errorf("Error generating event lists: err: %v", err)
		os.Exit(1)
	}
	log.Flush()
}
