package models

import (
	"log"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
)

func MigrateTable() {
	if err := AutoMigrate(); err != nil {
		log.Fatal(err)
	}
}

func AutoMigrate() error {
	db := config.GetDB()

	return db.AutoMigrate(
		&Area{},
		&History{},
		&Ruleset{}, &ScoringParam{},
		&TariffConfig{}, &ThresholdSlab{},
		&TariffEventRecord{},
	)
}
