package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/amenity"
	"github.com/Bernah2o/altavista/core/property"
)

type amenityApi struct {
	jwt       jwtKit
	svc       *amenity.Service
	residents *property.Service
	validate  *validator.Validate
}

func registerAmenityAPI(g *echo.Group, jwt echo.MiddlewareFunc, kit jwtKit, svc *amenity.Service, residents *property.Service, validate *validator.Validate) {
	api := amenityApi{jwt: kit, svc: svc, residents: residents, validate: validate}

	ag := g.Group("/amenities", jwt)
	ag.POST("", api.create, adminMiddleware())
	ag.GET("", api.query)
	ag.DELETE("", api.destroyMultiple, adminMiddleware())
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, adminMiddleware())
	ag.GET("/:id/availability", api.availability)
	ag.GET("/:id/bookings", api.dayBookings)
	ag.POST("/:id/bookings", api.book)

	bg := g.Group("/bookings", jwt)
	bg.GET("", api.queryBookings)
	bg.GET("/:id", api.retrieveBooking)
	bg.POST("/:id/confirm", api.confirmBooking, adminMiddleware())
	bg.POST("/:id/cancel", api.cancelBooking)
	bg.POST("/:id/complete", api.completeBooking, adminMiddleware())
}

// Amenity handlers

func (api *amenityApi) create(ctx echo.Context) error {
	var data amenity.NewAmenity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAmenity")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	am, err := api.svc.CreateAmenity(data)
	if err != nil {
		return errors.Wrap(err, "creating amenity")
	}
	return ctx.JSON(http.StatusCreated, am)
}

func (api *amenityApi) query(ctx echo.Context) error {
	activeOnly := ctx.QueryParam("active") == "true"
	ams, err := api.svc.QueryAmenities(activeOnly)
	if err != nil {
		return errors.Wrap(err, "querying amenities")
	}
	if ams == nil {
		ams = []amenity.Amenity{}
	}
	return ctx.JSON(http.StatusOK, ams)
}

func (api *amenityApi) retrieve(ctx echo.Context) error {
	am, err := api.svc.GetAmenityByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, am)
}

func (api *amenityApi) update(ctx echo.Context) error {
	var data amenity.UpdateAmenity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAmenity")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	am, err := api.svc.UpdateAmenity(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, am)
}

func (api *amenityApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.DeleteAmenities(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting amenities")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *amenityApi) availability(ctx echo.Context) error {
	date, err := bindDateParam(ctx, "date")
	if err != nil {
		return err
	}
	if date.IsZero() {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "this field is required"})
	}

	avail, err := api.svc.CheckAvailability(ctx.Param("id"), date, ctx.QueryParam("from"), ctx.QueryParam("to"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, avail)
}

func (api *amenityApi) dayBookings(ctx echo.Context) error {
	date, err := bindDateParam(ctx, "date")
	if err != nil {
		return err
	}
	if date.IsZero() {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "this field is required"})
	}

	bkgs, err := api.svc.DayBookings(ctx.Param("id"), date)
	if err != nil {
		return err
	}
	if bkgs == nil {
		bkgs = []amenity.Booking{}
	}
	return ctx.JSON(http.StatusOK, bkgs)
}

// Booking handlers

func (api *amenityApi) book(ctx echo.Context) error {
	var data amenity.NewBooking
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBooking")
	}

	// residents book on their own behalf
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if !(claims.IsAdmin || claims.IsStaff) {
		own, err := api.residents.GetOwnerByUserID(claims.Subject)
		if err != nil {
			return errHttpForbidden
		}
		data.OwnerID = own.ID
	}

	if err := data.Validate(api.validate); err != nil {
		return err
	}

	bkg, err := api.svc.Book(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, bkg)
}

func (api *amenityApi) queryBookings(ctx echo.Context) error {
	filter := new(amenity.BookingFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []amenity.Booking{})
	}
	filter.Clean()

	// residents only see their own bookings
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if !(claims.IsAdmin || claims.IsStaff) {
		own, err := api.residents.GetOwnerByUserID(claims.Subject)
		if err != nil {
			return ctx.JSON(http.StatusOK, []amenity.Booking{})
		}
		filter.OwnerID = own.ID
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	bkgs, err := api.svc.QueryBookings(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying bookings")
	}
	if bkgs == nil {
		bkgs = []amenity.Booking{}
	}
	return ctx.JSON(http.StatusOK, bkgs)
}

func (api *amenityApi) retrieveBooking(ctx echo.Context) error {
	bkg, err := api.svc.GetBooking(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, bkg)
}

func (api *amenityApi) confirmBooking(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	bkg, err := api.svc.ConfirmBooking(ctx.Param("id"), claims.Username)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, bkg)
}

func (api *amenityApi) cancelBooking(ctx echo.Context) error {
	var data ReasonRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReasonRequest")
	}

	// residents may only cancel their own bookings
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if !(claims.IsAdmin || claims.IsStaff) {
		bkg, err := api.svc.GetBooking(ctx.Param("id"))
		if err != nil {
			return err
		}
		own, err := api.residents.GetOwnerByUserID(claims.Subject)
		if err != nil || bkg.OwnerID != own.ID {
			return errHttpForbidden
		}
	}

	bkg, err := api.svc.CancelBooking(ctx.Param("id"), data.Reason)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, bkg)
}

func (api *amenityApi) completeBooking(ctx echo.Context) error {
	noShow := ctx.QueryParam("no_show") == "true"
	bkg, err := api.svc.CompleteBooking(ctx.Param("id"), noShow)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, bkg)
}
