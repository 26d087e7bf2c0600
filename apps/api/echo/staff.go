package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Bernah2o/altavista/core/staff"
)

type staffApi struct {
	jwt      jwtKit
	svc      *staff.Service
	validate *validator.Validate
}

func registerStaffAPI(g *echo.Group, jwt echo.MiddlewareFunc, kit jwtKit, svc *staff.Service, validate *validator.Validate) {
	api := staffApi{jwt: kit, svc: svc, validate: validate}

	eg := g.Group("/employees", jwt, adminMiddleware())
	eg.POST("", api.create)
	eg.GET("", api.query)
	eg.DELETE("", api.destroyMultiple)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.update)
}

func (api *staffApi) create(ctx echo.Context) error {
	var data staff.NewEmployee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEmployee")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	emp, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating employee")
	}
	return ctx.JSON(http.StatusCreated, emp)
}

func (api *staffApi) query(ctx echo.Context) error {
	filter := new(staff.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []staff.Employee{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	emps, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying employees")
	}
	if emps == nil {
		emps = []staff.Employee{}
	}
	return ctx.JSON(http.StatusOK, emps)
}

func (api *staffApi) retrieve(ctx echo.Context) error {
	emp, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, emp)
}

func (api *staffApi) update(ctx echo.Context) error {
	var data staff.UpdateEmployee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEmployee")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	emp, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, emp)
}

func (api *staffApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting employees")
	}
	return ctx.NoContent(http.StatusNoContent)
}
