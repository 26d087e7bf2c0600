package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Bernah2o/altavista/core/incident"
	"github.com/Bernah2o/altavista/core/property"
)

type incidentApi struct {
	jwt       jwtKit
	svc       *incident.Service
	residents *property.Service
	validate  *validator.Validate
}

func registerIncidentAPI(g *echo.Group, jwt echo.MiddlewareFunc, kit jwtKit, svc *incident.Service, residents *property.Service, validate *validator.Validate) {
	api := incidentApi{jwt: kit, svc: svc, residents: residents, validate: validate}

	ig := g.Group("/incidents", jwt)
	ig.POST("", api.create)
	ig.GET("", api.query)
	ig.DELETE("", api.destroyMultiple, adminMiddleware())
	ig.GET("/:id", api.retrieve)
	ig.PUT("/:id", api.update, staffMiddleware())
	ig.GET("/:id/updates", api.queryUpdates)
	ig.POST("/:id/updates", api.addUpdate, staffMiddleware())
	ig.POST("/:id/assign-maintenance", api.assignMaintenance, adminMiddleware())
}

func (api *incidentApi) create(ctx echo.Context) error {
	var data incident.NewIncident
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewIncident")
	}

	// residents report on their own behalf
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

	inc, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, inc)
}

func (api *incidentApi) query(ctx echo.Context) error {
	filter := new(incident.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []incident.Incident{})
	}
	filter.Clean()

	// residents only see their own incidents
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if !(claims.IsAdmin || claims.IsStaff) {
		own, err := api.residents.GetOwnerByUserID(claims.Subject)
		if err != nil {
			return ctx.JSON(http.StatusOK, []incident.Incident{})
		}
		filter.OwnerID = own.ID
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	incs, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying incidents")
	}
	if incs == nil {
		incs = []incident.Incident{}
	}
	return ctx.JSON(http.StatusOK, incs)
}

func (api *incidentApi) retrieve(ctx echo.Context) error {
	inc, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, inc)
}

func (api *incidentApi) update(ctx echo.Context) error {
	var data incident.UpdateIncident
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateIncident")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	inc, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, inc)
}

func (api *incidentApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting incidents")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *incidentApi) queryUpdates(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	// residents only see owner-visible follow-ups
	visibleOnly := !(claims.IsAdmin || claims.IsStaff)

	upds, err := api.svc.QueryUpdates(ctx.Param("id"), visibleOnly)
	if err != nil {
		return err
	}
	if upds == nil {
		upds = []incident.Update{}
	}
	return ctx.JSON(http.StatusOK, upds)
}

func (api *incidentApi) addUpdate(ctx echo.Context) error {
	var data incident.NewUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	upd, err := api.svc.AddUpdate(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, upd)
}

func (api *incidentApi) assignMaintenance(ctx echo.Context) error {
	inc, err := api.svc.AssignToMaintenance(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, inc)
}
