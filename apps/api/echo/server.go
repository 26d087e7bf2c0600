package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

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
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool

		UserSvc        *user.Service
		PropertySvc    *property.Service
		BillingSvc     *billing.Service
		FinanceSvc     *finance.Service
		IncidentSvc    *incident.Service
		MaintenanceSvc *maintenance.Service
		AmenitySvc     *amenity.Service
		StaffSvc       *staff.Service
		SupplierSvc    *supplier.Service
		ReportSvc      *report.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		jwt      jwtKit
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		jwt:      newJWTKit(deps.Conf, deps.UserSvc),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(metricsMiddleware())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.app.Group("/v1")
	jwt := s.jwt.middleware()

	registerUserAPI(v1, jwt, s.jwt, s.deps.UserSvc, s.deps.Validate)
	registerPropertyAPI(v1, jwt, s.jwt, s.deps.PropertySvc, s.deps.Validate)
	registerBillingAPI(v1, jwt, s.jwt, s.deps.BillingSvc, s.deps.Validate)
	registerFinanceAPI(v1, jwt, s.jwt, s.deps.FinanceSvc, s.deps.Validate)
	registerIncidentAPI(v1, jwt, s.jwt, s.deps.IncidentSvc, s.deps.PropertySvc, s.deps.Validate)
	registerMaintenanceAPI(v1, jwt, s.jwt, s.deps.MaintenanceSvc, s.deps.Validate)
	registerAmenityAPI(v1, jwt, s.jwt, s.deps.AmenitySvc, s.deps.PropertySvc, s.deps.Validate)
	registerStaffAPI(v1, jwt, s.jwt, s.deps.StaffSvc, s.deps.Validate)
	registerSupplierAPI(v1, jwt, s.jwt, s.deps.SupplierSvc, s.deps.Validate)
	registerReportAPI(v1, jwt, s.jwt, s.deps.ReportSvc)
}

// Start runs the listener; any listener error lands on Errors().
func (s *Server) Start() {
	s.errors <- s.app.Start(s.deps.Conf.Server.Address())
}

func (s *Server) Errors() <-chan error            { return s.errors }
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Altavista API!")
}
