package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/report"
)

type reportApi struct {
	jwt jwtKit
	svc *report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, kit jwtKit, svc *report.Service) {
	api := reportApi{jwt: kit, svc: svc}

	rg := g.Group("/reports", jwt, adminMiddleware())
	rg.GET("/fee-status/:feeID", api.feeStatus)
	rg.GET("/financial-summary", api.financialSummary)
	rg.GET("/incidents", api.incidents)
}

func (api *reportApi) feeStatus(ctx echo.Context) error {
	data, filename, err := api.svc.FeePaymentStatus(ctx.Param("feeID"))
	if err != nil {
		return err
	}
	return sendPDF(ctx, data, filename)
}

func (api *reportApi) financialSummary(ctx echo.Context) error {
	from, to, err := bindDateRange(ctx)
	if err != nil {
		return err
	}

	data, filename, err := api.svc.FinancialSummary(from, to)
	if err != nil {
		return err
	}
	return sendPDF(ctx, data, filename)
}

func (api *reportApi) incidents(ctx echo.Context) error {
	from, to, err := bindDateRange(ctx)
	if err != nil {
		return err
	}

	data, filename, err := api.svc.Incidents(from, to)
	if err != nil {
		return err
	}
	return sendPDF(ctx, data, filename)
}

func bindDateRange(ctx echo.Context) (time.Time, time.Time, error) {
	from, err := bindDateParam(ctx, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := bindDateParam(ctx, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.IsZero() || to.IsZero() {
		return time.Time{}, time.Time{}, core.NewValidationError(nil,
			core.FieldError{Field: "from", Error: "this field is required"},
			core.FieldError{Field: "to", Error: "this field is required"})
	}
	return from, to, nil
}

func sendPDF(ctx echo.Context, data []byte, filename string) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, "application/pdf", data)
}
