package main

// Example usage on Terminal.
// go run run_db_create.go --env=development --db_host=localhost --db_port=5432

import (
	"flag"
	"os"

	C "memberbase/config"
	"memberbase/model/model"
	"memberbase/util"

	_ "github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"
)

func main() {

	env := flag.String("env", C.DEVELOPMENT, "")
	dbHost := flag.String("db_host", "localhost", "")
	dbPort := flag.Int("db_port", 5432, "")
	dbUser := flag.String("db_user", "memberbase", "")
	dbName := flag.String("db_name", "memberbase", "")
	dbPass := flag.String("db_pass", "memberbase", "")

	flag.Parse()

	defer util.NotifyOnPanic("Task#DbCreate", *env)

	config := &C.Configuration{
		Env: *env,
		DBInfo: C.DBConf{
			Host:     *dbHost,
			Port:     *dbPort,
			User:     *dbUser,
			Name:     *dbName,
			Password: *dbPass,
		},
	}

	C.InitConf(config)
	// Initialize configs and connections.
	err := C.InitDB(*config)
	if err != nil {
		log.Error("Failed to initialize.")
		os.Exit(1)
	}

	if C.GetConfig().Env != C.DEVELOPMENT {
		log.Error("Not Development Environment. Aborting")
		return
	}

	db := C.GetServices().Db
	defer db.Close()

	// Create users table.
	if err := db.CreateTable(&model.User{}).Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("users table creation failed.")
	} else {
		log.Info("Created users table")
	}
	// Add unique index on user emails.
	if err := db.Exec("CREATE UNIQUE INDEX users_email_unique_idx ON users(email);").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("users table email unique indexing failed.")
	} else {
		log.Info("users table email unique index created.")
	}

	// Create organisations table.
	if err := db.CreateTable(&model.Organisation{}).Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("organisations table creation failed.")
	} else {
		log.Info("Created organisations table")
	}

	// Create organisation_admins table.
	if err := db.CreateTable(&model.OrganisationAdmin{}).Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("organisation_admins table creation failed.")
	} else {
		log.Info("Created organisation_admins table")
	}
	// Add foreign key constraints.
	if err := db.Model(&model.OrganisationAdmin{}).AddForeignKey("organisation_id", "organisations(id)", "RESTRICT", "RESTRICT").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("organisation_admins table association with organisations table failed.")
	} else {
		log.Info("organisation_admins table is associated with organisations table.")
	}
	if err := db.Model(&model.OrganisationAdmin{}).AddForeignKey("user_id", "users(id)", "RESTRICT", "RESTRICT").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("organisation_admins table association with users table failed.")
	} else {
		log.Info("organisation_admins table is associated with users table.")
	}
	// Adding unique index on organisation_id, user_id.
	if err := db.Exec("CREATE UNIQUE INDEX organisation_admins_organisation_id_user_id_unique_idx ON organisation_admins(organisation_id, user_id);").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("organisation_admins unique index creation failed.")
	} else {
		log.Info("Created unique index on organisation_admins table.")
	}

	// Create accounts table.
	if err := db.CreateTable(&model.Account{}).Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("accounts table creation failed.")
	} else {
		log.Info("Created accounts table")
	}
	// Add foreign key constraints.
	if err := db.Model(&model.Account{}).AddForeignKey("user_id", "users(id)", "RESTRICT", "RESTRICT").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("accounts table association with users table failed.")
	} else {
		log.Info("accounts table is associated with users table.")
	}
	if err := db.Model(&model.Account{}).AddForeignKey("organisation_id", "organisations(id)", "RESTRICT", "RESTRICT").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("accounts table association with organisations table failed.")
	} else {
		log.Info("accounts table is associated with organisations table.")
	}
	// An account belongs to exactly one of user or organisation.
	if err := db.Exec("ALTER TABLE accounts ADD CONSTRAINT accounts_exactly_one_owner_check CHECK ((user_id IS NULL) != (organisation_id IS NULL));").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("accounts exactly one owner check creation failed.")
	} else {
		log.Info("accounts exactly one owner check created.")
	}
	// One account per owner.
	if err := db.Exec("CREATE UNIQUE INDEX accounts_user_id_unique_idx ON accounts(user_id) WHERE user_id IS NOT NULL;").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("accounts user_id unique indexing failed.")
	} else {
		log.Info("accounts user_id unique index created.")
	}
	if err := db.Exec("CREATE UNIQUE INDEX accounts_organisation_id_unique_idx ON accounts(organisation_id) WHERE organisation_id IS NOT NULL;").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("accounts organisation_id unique indexing failed.")
	} else {
		log.Info("accounts organisation_id unique index created.")
	}

	// Create xero_contacts table.
	if err := db.CreateTable(&model.XeroContact{}).Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("xero_contacts table creation failed.")
	} else {
		log.Info("Created xero_contacts table")
	}
	// Add foreign key constraints.
	if err := db.Model(&model.XeroContact{}).AddForeignKey("account_id", "accounts(id)", "RESTRICT", "RESTRICT").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("xero_contacts table association with accounts table failed.")
	} else {
		log.Info("xero_contacts table is associated with accounts table.")
	}

	// Create invoices table.
	if err := db.CreateTable(&model.Invoice{}).Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("invoices table creation failed.")
	} else {
		log.Info("Created invoices table")
	}
	// Add foreign key constraints.
	if err := db.Model(&model.Invoice{}).AddForeignKey("account_id", "accounts(id)", "RESTRICT", "RESTRICT").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("invoices table association with accounts table failed.")
	} else {
		log.Info("invoices table is associated with accounts table.")
	}
	// Partial index for the sync query on flagged invoices.
	if err := db.Exec("CREATE INDEX invoices_update_needed_idx ON invoices(id) WHERE update_needed = TRUE AND billing_service_invoice_id IS NOT NULL;").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("invoices update_needed partial indexing failed.")
	} else {
		log.Info("invoices update_needed partial index created.")
	}

	// Create memberships table.
	if err := db.CreateTable(&model.Membership{}).Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("memberships table creation failed.")
	} else {
		log.Info("Created memberships table")
	}
	// Add foreign key constraints.
	if err := db.Model(&model.Membership{}).AddForeignKey("user_id", "users(id)", "RESTRICT", "RESTRICT").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("memberships table association with users table failed.")
	} else {
		log.Info("memberships table is associated with users table.")
	}
	// One membership per user per year.
	if err := db.Exec("CREATE UNIQUE INDEX memberships_user_id_year_unique_idx ON memberships(user_id, year);").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("memberships user_id year unique indexing failed.")
	} else {
		log.Info("memberships user_id year unique index created.")
	}

	// Create organisation_memberships table.
	if err := db.CreateTable(&model.OrganisationMembership{}).Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("organisation_memberships table creation failed.")
	} else {
		log.Info("Created organisation_memberships table")
	}
	// Add foreign key constraints.
	if err := db.Model(&model.OrganisationMembership{}).AddForeignKey("organisation_id", "organisations(id)", "RESTRICT", "RESTRICT").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("organisation_memberships table association with organisations table failed.")
	} else {
		log.Info("organisation_memberships table is associated with organisations table.")
	}
	if err := db.Exec("CREATE UNIQUE INDEX organisation_memberships_organisation_id_year_unique_idx ON organisation_memberships(organisation_id, year);").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("organisation_memberships organisation_id year unique indexing failed.")
	} else {
		log.Info("organisation_memberships organisation_id year unique index created.")
	}

	// Create xero_mutexes table and seed the lock row.
	if err := db.CreateTable(&model.XeroMutex{}).Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("xero_mutexes table creation failed.")
	} else {
		log.Info("Created xero_mutexes table")
	}
	if err := db.Exec("INSERT INTO xero_mutexes (id, created_at, updated_at) VALUES (1, now(), now());").Error; err != nil {
		log.WithFields(log.Fields{"err": err}).Error("xero_mutexes seed row insert failed.")
	} else {
		log.Info("xero_mutexes seed row inserted.")
	}
}
