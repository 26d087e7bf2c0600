package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Bernah2o/altavista/core/supplier"
)

type supplierApi struct {
	jwt      jwtKit
	svc      *supplier.Service
	validate *validator.Validate
}

func registerSupplierAPI(g *echo.Group, jwt echo.MiddlewareFunc, kit jwtKit, svc *supplier.Service, validate *validator.Validate) {
	api := supplierApi{jwt: kit, svc: svc, validate: validate}

	sg := g.Group("/suppliers", jwt, adminMiddleware())
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.DELETE("", api.destroyMultiple)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
}

func (api *supplierApi) create(ctx echo.Context) error {
	var data supplier.NewSupplier
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSupplier")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	sup, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating supplier")
	}
	return ctx.JSON(http.StatusCreated, sup)
}

func (api *supplierApi) query(ctx echo.Context) error {
	filter := new(supplier.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []supplier.Supplier{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	sups, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying suppliers")
	}
	if sups == nil {
		sups = []supplier.Supplier{}
	}
	return ctx.JSON(http.StatusOK, sups)
}

func (api *supplierApi) retrieve(ctx echo.Context) error {
	sup, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sup)
}

func (api *supplierApi) update(ctx echo.Context) error {
	var data supplier.UpdateSupplier
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSupplier")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sup, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sup)
}

func (api *supplierApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting suppliers")
	}
	return ctx.NoContent(http.StatusNoContent)
}
