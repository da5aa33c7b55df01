package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/icpschool/schoolpay/core/admin"
	"github.com/icpschool/schoolpay/core/student"
)

type adminApi struct {
	svc      *admin.Service
	validate *validator.Validate
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := adminApi{svc: deps.AdminSvc, validate: deps.Validate}

	ag := g.Group("/admins", jwt, adminMiddleware())

	dg := ag.Group("/:id")
	dg.GET("/profile", api.profile)
	dg.GET("/selection", api.selection)
	dg.PUT("/selection", api.saveSelection)
}

// Handlers

func (api *adminApi) profile(ctx echo.Context) error {
	p, err := api.svc.GetProfile(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

// selection restores the admin's last saved grade/strand/section grouping.
func (api *adminApi) selection(ctx echo.Context) error {
	sel, err := api.svc.Selection(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sel)
}

func (api *adminApi) saveSelection(ctx echo.Context) error {
	var data student.Selection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Selection")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.SaveSelection(ctx.Request().Context(), ctx.Param("id"), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, data)
}
