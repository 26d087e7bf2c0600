package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Bernah2o/altavista/core/maintenance"
)

type maintenanceApi struct {
	jwt      jwtKit
	svc      *maintenance.Service
	validate *validator.Validate
}

func registerMaintenanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, kit jwtKit, svc *maintenance.Service, validate *validator.Validate) {
	api := maintenanceApi{jwt: kit, svc: svc, validate: validate}

	mg := g.Group("/maintenance", jwt, staffMiddleware())
	mg.POST("", api.create)
	mg.GET("", api.query)
	mg.DELETE("", api.destroyMultiple, adminMiddleware())
	mg.GET("/:id", api.retrieve)
	mg.PUT("/:id", api.update)
	mg.POST("/:id/start", api.start)
	mg.POST("/:id/finish", api.finish)
	mg.POST("/:id/cancel", api.cancel)
}

func (api *maintenanceApi) create(ctx echo.Context) error {
	var data maintenance.NewJob
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewJob")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	job, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating job")
	}
	return ctx.JSON(http.StatusCreated, job)
}

func (api *maintenanceApi) query(ctx echo.Context) error {
	filter := new(maintenance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []maintenance.Job{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	jobs, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying jobs")
	}
	if jobs == nil {
		jobs = []maintenance.Job{}
	}
	return ctx.JSON(http.StatusOK, jobs)
}

func (api *maintenanceApi) retrieve(ctx echo.Context) error {
	job, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, job)
}

func (api *maintenanceApi) update(ctx echo.Context) error {
	var data maintenance.UpdateJob
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateJob")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	job, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, job)
}

func (api *maintenanceApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting jobs")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *maintenanceApi) start(ctx echo.Context) error {
	job, err := api.svc.Start(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, job)
}

func (api *maintenanceApi) finish(ctx echo.Context) error {
	var data maintenance.FinishJob
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FinishJob")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	job, err := api.svc.Finish(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, job)
}

func (api *maintenanceApi) cancel(ctx echo.Context) error {
	var data ReasonRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReasonRequest")
	}

	job, err := api.svc.Cancel(ctx.Param("id"), data.Reason)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, job)
}
