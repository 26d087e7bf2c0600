package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/Bernah2o/altavista/apps/api/echo"
	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/amenity"
	"github.com/Bernah2o/altavista/core/billing"
	"github.com/Bernah2o/altavista/core/finance"
	"github.com/Bernah2o/altavista/core/incident"
	"github.com/Bernah2o/altavista/core/maintenance"
	"github.com/Bernah2o/altavista/core/property"
	"github.com/Bernah2o/altavista/core/report"
	"github.com/Bernah2o/altavista/core/staff"
	"github.com/Bernah2o/altavista/core/supplier"
	"github.com/Bernah2o/altavista/core/user"
	emailsvc "github.com/Bernah2o/altavista/services/email"
	logsvc "github.com/Bernah2o/altavista/services/logger"
	"github.com/Bernah2o/altavista/storage/database"
	pgrepos "github.com/Bernah2o/altavista/storage/database/postgres"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	core.InitMail(conf)

	usrSvc := user.NewService(conf, pgrepos.NewUserRepository(db), mailSvc)
	propSvc := property.NewService(conf, pgrepos.NewPropertyRepository(db))
	finSvc := finance.NewService(conf, pgrepos.NewFinanceRepository(db))
	billSvc := billing.NewService(conf, pgrepos.NewBillingRepository(db), propSvc, finSvc, mailSvc)
	incSvc := incident.NewService(conf, pgrepos.NewIncidentRepository(db), propSvc, mailSvc)
	mntSvc := maintenance.NewService(conf, pgrepos.NewMaintenanceRepository(db), finSvc, incSvc)
	incSvc.SetScheduler(mntSvc)
	amenSvc := amenity.NewService(conf, pgrepos.NewAmenityRepository(db), propSvc, finSvc)
	staffSvc := staff.NewService(conf, pgrepos.NewStaffRepository(db))
	supSvc := supplier.NewService(conf, pgrepos.NewSupplierRepository(db))
	rptSvc := report.NewService(conf, billSvc, finSvc, incSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			UserSvc:        usrSvc,
			PropertySvc:    propSvc,
			BillingSvc:     billSvc,
			FinanceSvc:     finSvc,
			IncidentSvc:    incSvc,
			MaintenanceSvc: mntSvc,
			AmenitySvc:     amenSvc,
			StaffSvc:       staffSvc,
			SupplierSvc:    supSvc,
			ReportSvc:      rptSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB, "up"); err != nil {
		return nil, err
	}
	return db, nil
}
