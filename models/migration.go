package models

import (
	"log"

	"github.com/montazreklam/jobs_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Job{}, &ChecklistItem{}, &JobAttachment{},
		&InvoiceSummary{},
		&History{},
		&User{},
		&BillingConnection{}, &BillingSyncRun{}, &BillingSyncError{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
