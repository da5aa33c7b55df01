package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/icpschool/schoolpay/core/student"
)

type studentApi struct {
	svc        *student.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		svc:        deps.StudentSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	sg := g.Group("/students", jwt, adminMiddleware())

	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.POST("/import", api.importStudents)
	sg.GET("/:grade/:strand/:section", api.list)

	// detail endpoints
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.GET("/:id/balances", api.getBalances)
	sg.POST("/:id/balances", api.replaceBalances)
	sg.POST("/:id/balance", api.addBalance)
	sg.PUT("/:id/balances/:balanceId", api.updateBalance)
	sg.DELETE("/:id/balances/:balanceId", api.deleteBalance)
}

// Handlers

// list returns the students of a grade/strand/section grouping, each decorated
// with its unpaid total. An empty grouping is an empty list, never an error.
func (api *studentApi) list(ctx echo.Context) error {
	sel := student.Selection{
		Grade:   ctx.Param("grade"),
		Strand:  ctx.Param("strand"),
		Section: ctx.Param("section"),
	}
	if err := sel.Validate(api.validate); err != nil {
		return err
	}

	students, err := api.svc.List(ctx.Request().Context(), sel)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, student.WithTotals(students))
}

func (api *studentApi) query(ctx echo.Context) error {
	students, err := api.svc.ListAll(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) importStudents(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "a spreadsheet file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = src.Close() }()

	imported, err := api.svc.ImportStudents(ctx.Request().Context(), src)
	if err != nil {
		if err == student.ErrNoSheet || errors.Cause(err) == student.ErrNoSheet {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"imported": imported})
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}

	orig, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, orig, api.svc); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) getBalances(ctx echo.Context) error {
	summary, err := api.svc.GetBalances(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, summary)
}

type replaceBalancesRequest struct {
	UpdatedBalances []student.Balance `json:"updatedBalances"`
}

func (api *studentApi) replaceBalances(ctx echo.Context) error {
	var data replaceBalancesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to replaceBalancesRequest")
	}

	reqCtx := ctx.Request().Context()
	if err := api.svc.ReplaceBalances(reqCtx, ctx.Param("id"), data.UpdatedBalances); err != nil {
		return err
	}
	summary, err := api.svc.GetBalances(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *studentApi) addBalance(ctx echo.Context) error {
	var data student.NewBalance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBalance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.AddBalance(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *studentApi) updateBalance(ctx echo.Context) error {
	var data student.UpdateBalance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBalance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.UpdateBalance(ctx.Request().Context(), ctx.Param("id"), ctx.Param("balanceId"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, b)
}

// deleteBalance is tolerant of an already-removed line item; deleting an
// unknown balance id on an existing student succeeds.
func (api *studentApi) deleteBalance(ctx echo.Context) error {
	if err := api.svc.DeleteBalance(ctx.Request().Context(), ctx.Param("id"), ctx.Param("balanceId")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
