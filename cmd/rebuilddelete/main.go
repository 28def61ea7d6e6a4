// Package main contains logic to delete old versions of tables
package main

import (
	"flag"
	"os"

	log "github.com/golang/glog"

	"github.com/joincivil/civil-chainlist/pkg/persistence"
	"github.com/joincivil/civil-chainlist/pkg/persistence/postgres"
	"github.com/joincivil/civil-chainlist/pkg/utils"
)

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
	if config.PersisterType != utils.PersisterTypePostgresql {
		log.Errorf("Rebuild only supported for the postgresql persister")
		os.Exit(2)
	}

	// this should look in db and get all versions which aren't new
	persister, err := persistence.NewPostgresPersister(
		config.PersisterPostgresAddress,
		config.PersisterPostgresPort,
		config.PersisterPostgresUser,
		config.PersisterPostgresPw,
		config.PersisterPostgresDbname,
	)
	if err != nil {
		log.Errorf("Error connecting to Postgresql, stopping...; err: %v", err)
		os.Exit(1)
	}
	defer persister.Close() // nolint: errcheck

	versions, err := persister.OldVersions(persistence.ProcessorServiceName)
	if err != nil {
		log.Errorf("Error getting versions, stopping...; err: %v", err)
		os.Exit(1)
	}
	log.Infof("Old versions: %v", versions)

	tableNames := []string{
		postgres.ArticleListingTableBaseName,
		postgres.CronTableBaseName,
	}
	for _, version := range versions {
		failed := false
		for _, tableName := range tableNames {
			currTableName := postgres.VersionedTableName(tableName, version)
			log.Infof("Attempting to delete table %v", currTableName)
			err := persister.DropTable(currTableName)
			if err != nil {
				log.Errorf("Error deleting %v table; err: %v", currTableName, err)
				failed = true
				continue
			}
			log.Infof("Successfully deleted table %v", currTableName)
		}
		if failed {
			continue
		}
		err = persister.UpdateExistenceFalseForVersionTable(postgres.VersionTableName, version,
			persistence.ProcessorServiceName)
		if err != nil {
			log.Errorf("Error updating exists field for version %v; err: %v", version, err)
		}
	}

	// NOTE(IS): Not deleting versions from version table so we can keep track.
	log.Info("Rebuild completed")
	log.Flush()
}
