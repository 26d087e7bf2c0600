package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/billing"
)

type billingApi struct {
	jwt      jwtKit
	svc      *billing.Service
	validate *validator.Validate
}

func registerBillingAPI(g *echo.Group, jwt echo.MiddlewareFunc, kit jwtKit, svc *billing.Service, validate *validator.Validate) {
	api := billingApi{jwt: kit, svc: svc, validate: validate}

	fg := g.Group("/fees", jwt)
	fg.POST("", api.createFee, adminMiddleware())
	fg.GET("", api.queryFees)
	fg.DELETE("", api.destroyFees, adminMiddleware())
	fg.GET("/current", api.currentFee)
	fg.POST("/generate-next", api.generateNextFee, adminMiddleware())
	fg.GET("/:id", api.retrieveFee)
	fg.PUT("/:id", api.updateFee, adminMiddleware())
	fg.GET("/:id/payment-status", api.feePaymentStatus, adminMiddleware())
	fg.POST("/:id/reminders", api.sendReminders, adminMiddleware())

	pg := g.Group("/payments", jwt)
	pg.POST("", api.createPayment)
	pg.GET("", api.queryPayments, adminMiddleware())
	pg.GET("/:id", api.retrievePayment)
	pg.POST("/:id/confirm", api.confirmPayment, adminMiddleware())
	pg.POST("/:id/reject", api.rejectPayment, adminMiddleware())

	g.GET("/homes/:id/pending-fees", api.pendingFees, jwt)
}

// Fee handlers

func (api *billingApi) createFee(ctx echo.Context) error {
	var data billing.NewFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFee")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	fee, err := api.svc.CreateFee(data)
	if err != nil {
		return errors.Wrap(err, "creating fee")
	}
	return ctx.JSON(http.StatusCreated, fee)
}

func (api *billingApi) queryFees(ctx echo.Context) error {
	var year int
	if val := ctx.QueryParam("year"); val != "" {
		y, err := strconv.Atoi(val)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "year", Error: "must be a number"})
		}
		year = y
	}

	fees, err := api.svc.QueryFees(year)
	if err != nil {
		return errors.Wrap(err, "querying fees")
	}
	if fees == nil {
		fees = []billing.Fee{}
	}
	return ctx.JSON(http.StatusOK, fees)
}

func (api *billingApi) currentFee(ctx echo.Context) error {
	fee, err := api.svc.CurrentFee()
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, fee)
}

func (api *billingApi) generateNextFee(ctx echo.Context) error {
	fee, err := api.svc.GenerateNextFee()
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, fee)
}

func (api *billingApi) retrieveFee(ctx echo.Context) error {
	fee, err := api.svc.GetFeeByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, fee)
}

func (api *billingApi) updateFee(ctx echo.Context) error {
	var data billing.UpdateFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateFee")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	fee, err := api.svc.UpdateFee(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, fee)
}

func (api *billingApi) destroyFees(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.DeleteFees(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting fees")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *billingApi) feePaymentStatus(ctx echo.Context) error {
	status, err := api.svc.FeePaymentStatus(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *billingApi) sendReminders(ctx echo.Context) error {
	sent, err := api.svc.SendReminders(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"queued": sent})
}

func (api *billingApi) pendingFees(ctx echo.Context) error {
	pending, err := api.svc.PendingFees(ctx.Param("id"))
	if err != nil {
		return err
	}
	if pending == nil {
		pending = []billing.PendingFee{}
	}
	return ctx.JSON(http.StatusOK, pending)
}

// Payment handlers

func (api *billingApi) createPayment(ctx echo.Context) error {
	var data billing.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if claims, err := getContextClaims(ctx); err == nil {
		data.RegisteredBy = null.StringFrom(claims.Username)
	}

	pmt, err := api.svc.CreatePayment(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, pmt)
}

func (api *billingApi) queryPayments(ctx echo.Context) error {
	filter := new(billing.PaymentFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []billing.Payment{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	pmts, err := api.svc.QueryPayments(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if pmts == nil {
		pmts = []billing.Payment{}
	}
	return ctx.JSON(http.StatusOK, pmts)
}

func (api *billingApi) retrievePayment(ctx echo.Context) error {
	pmt, err := api.svc.GetPayment(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pmt)
}

func (api *billingApi) confirmPayment(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	pmt, err := api.svc.ConfirmPayment(ctx.Param("id"), claims.Username)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pmt)
}

func (api *billingApi) rejectPayment(ctx echo.Context) error {
	var data ReasonRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReasonRequest")
	}

	pmt, err := api.svc.RejectPayment(ctx.Param("id"), data.Reason)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pmt)
}

// ReasonRequest carries the optional reason of a rejection, void or cancellation.
type ReasonRequest struct {
	Reason string `json:"reason"`
}
