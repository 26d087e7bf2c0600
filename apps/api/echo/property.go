package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Bernah2o/altavista/core/property"
)

type propertyApi struct {
	jwt      jwtKit
	svc      *property.Service
	validate *validator.Validate
}

func registerPropertyAPI(g *echo.Group, jwt echo.MiddlewareFunc, kit jwtKit, svc *property.Service, validate *validator.Validate) {
	api := propertyApi{jwt: kit, svc: svc, validate: validate}

	hg := g.Group("/homes", jwt)
	hg.POST("", api.createHome, adminMiddleware())
	hg.GET("", api.queryHomes)
	hg.DELETE("", api.destroyHomes, adminMiddleware())
	hg.GET("/:id", api.retrieveHome)
	hg.PUT("/:id", api.updateHome, adminMiddleware())
	hg.GET("/:id/owners", api.queryHomeOwners)
	hg.POST("/:id/owners", api.assignOwner, adminMiddleware())
	hg.DELETE("/:id/owners/:ownerID", api.releaseOwner, adminMiddleware())

	og := g.Group("/owners", jwt)
	og.POST("", api.createOwner, adminMiddleware())
	og.GET("", api.queryOwners)
	og.DELETE("", api.destroyOwners, adminMiddleware())
	og.GET("/:id", api.retrieveOwner)
	og.PUT("/:id", api.updateOwner, adminMiddleware())
	og.GET("/:id/homes", api.queryOwnerHomes)
}

// Home handlers

func (api *propertyApi) createHome(ctx echo.Context) error {
	var data property.NewHome
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewHome")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	hm, err := api.svc.CreateHome(data)
	if err != nil {
		return errors.Wrap(err, "creating home")
	}
	return ctx.JSON(http.StatusCreated, hm)
}

func (api *propertyApi) queryHomes(ctx echo.Context) error {
	filter := new(property.HomeFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []property.Home{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	homes, err := api.svc.QueryHomes(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying homes")
	}
	if homes == nil {
		homes = []property.Home{}
	}
	return ctx.JSON(http.StatusOK, homes)
}

func (api *propertyApi) retrieveHome(ctx echo.Context) error {
	hm, err := api.svc.GetHomeByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, hm)
}

func (api *propertyApi) updateHome(ctx echo.Context) error {
	var data property.UpdateHome
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateHome")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	hm, err := api.svc.UpdateHome(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, hm)
}

func (api *propertyApi) destroyHomes(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.DeleteHomes(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting homes")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *propertyApi) queryHomeOwners(ctx echo.Context) error {
	activeOnly := ctx.QueryParam("active") == "true"
	rels, err := api.svc.QueryHomeOwners(ctx.Param("id"), activeOnly)
	if err != nil {
		return err
	}
	if rels == nil {
		rels = []property.HomeOwner{}
	}
	return ctx.JSON(http.StatusOK, rels)
}

func (api *propertyApi) assignOwner(ctx echo.Context) error {
	var data property.AssignOwner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignOwner")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rel, err := api.svc.Assign(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rel)
}

func (api *propertyApi) releaseOwner(ctx echo.Context) error {
	endDate, err := bindDateParam(ctx, "end_date")
	if err != nil {
		return err
	}
	if endDate.IsZero() {
		endDate = time.Now().UTC()
	}

	if err := api.svc.Release(ctx.Param("id"), ctx.Param("ownerID"), endDate); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Owner handlers

func (api *propertyApi) createOwner(ctx echo.Context) error {
	var data property.NewOwner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOwner")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	own, err := api.svc.CreateOwner(data)
	if err != nil {
		return errors.Wrap(err, "creating owner")
	}
	return ctx.JSON(http.StatusCreated, own)
}

func (api *propertyApi) queryOwners(ctx echo.Context) error {
	filter := new(property.OwnerFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []property.Owner{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	owners, err := api.svc.QueryOwners(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying owners")
	}
	if owners == nil {
		owners = []property.Owner{}
	}
	return ctx.JSON(http.StatusOK, owners)
}

func (api *propertyApi) retrieveOwner(ctx echo.Context) error {
	own, err := api.svc.GetOwnerByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, own)
}

func (api *propertyApi) updateOwner(ctx echo.Context) error {
	own, err := api.svc.GetOwnerByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	var data property.UpdateOwner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateOwner")
	}
	if err := data.Validate(own, api.validate); err != nil {
		return err
	}

	own, err = api.svc.UpdateOwner(own.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, own)
}

func (api *propertyApi) destroyOwners(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.DeleteOwners(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting owners")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *propertyApi) queryOwnerHomes(ctx echo.Context) error {
	homes, err := api.svc.QueryOwnerHomes(ctx.Param("id"))
	if err != nil {
		return err
	}
	if homes == nil {
		homes = []property.Home{}
	}
	return ctx.JSON(http.StatusOK, homes)
}
