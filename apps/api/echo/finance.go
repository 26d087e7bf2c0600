package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/finance"
)

type financeApi struct {
	jwt      jwtKit
	svc      *finance.Service
	validate *validator.Validate
}

func registerFinanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, kit jwtKit, svc *finance.Service, validate *validator.Validate) {
	api := financeApi{jwt: kit, svc: svc, validate: validate}

	tg := g.Group("/transactions", jwt, adminMiddleware())
	tg.POST("", api.createTransaction)
	tg.GET("", api.queryTransactions)
	tg.DELETE("", api.destroyTransactions)
	tg.GET("/balance", api.balance)
	tg.GET("/expenses-by-category", api.expensesByCategory)
	tg.GET("/:id", api.retrieveTransaction)
	tg.PUT("/:id", api.updateTransaction)
	tg.POST("/:id/void", api.voidTransaction)

	bg := g.Group("/budgets", jwt, adminMiddleware())
	bg.POST("", api.createBudget)
	bg.GET("", api.queryBudgets)
	bg.DELETE("", api.destroyBudgets)
	bg.GET("/execution", api.budgetExecution)
	bg.GET("/:id", api.retrieveBudget)
	bg.PUT("/:id", api.updateBudget)

	fg := g.Group("/funds", jwt, adminMiddleware())
	fg.POST("", api.createFund)
	fg.GET("", api.queryFunds)
	fg.GET("/:id", api.retrieveFund)
	fg.PUT("/:id", api.updateFund)
	fg.POST("/:id/contribute", api.contribute)
	fg.POST("/:id/withdraw", api.withdraw)
	fg.GET("/:id/movements", api.queryFundMovements)
}

// Transaction handlers

func (api *financeApi) createTransaction(ctx echo.Context) error {
	var data finance.NewTransaction
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTransaction")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	txn, err := api.svc.CreateTransaction(data)
	if err != nil {
		return errors.Wrap(err, "creating transaction")
	}
	return ctx.JSON(http.StatusCreated, txn)
}

func (api *financeApi) queryTransactions(ctx echo.Context) error {
	filter := new(finance.TransactionFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []finance.Transaction{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	txns, err := api.svc.QueryTransactions(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying transactions")
	}
	if txns == nil {
		txns = []finance.Transaction{}
	}
	return ctx.JSON(http.StatusOK, txns)
}

func (api *financeApi) retrieveTransaction(ctx echo.Context) error {
	txn, err := api.svc.GetTransaction(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, txn)
}

func (api *financeApi) updateTransaction(ctx echo.Context) error {
	var data finance.UpdateTransaction
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTransaction")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	txn, err := api.svc.UpdateTransaction(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, txn)
}

func (api *financeApi) voidTransaction(ctx echo.Context) error {
	var data ReasonRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReasonRequest")
	}

	txn, err := api.svc.VoidTransaction(ctx.Param("id"), data.Reason)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, txn)
}

func (api *financeApi) destroyTransactions(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.DeleteTransactions(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting transactions")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *financeApi) balance(ctx echo.Context) error {
	from, err := bindDateParam(ctx, "from")
	if err != nil {
		return err
	}
	to, err := bindDateParam(ctx, "to")
	if err != nil {
		return err
	}

	bal, err := api.svc.PeriodBalance(from, to)
	if err != nil {
		return errors.Wrap(err, "computing balance")
	}
	return ctx.JSON(http.StatusOK, bal)
}

func (api *financeApi) expensesByCategory(ctx echo.Context) error {
	from, err := bindDateParam(ctx, "from")
	if err != nil {
		return err
	}
	to, err := bindDateParam(ctx, "to")
	if err != nil {
		return err
	}

	totals, err := api.svc.ExpensesByCategory(from, to)
	if err != nil {
		return errors.Wrap(err, "computing expenses by category")
	}
	if totals == nil {
		totals = []finance.CategoryTotal{}
	}
	return ctx.JSON(http.StatusOK, totals)
}

// Budget handlers

func (api *financeApi) createBudget(ctx echo.Context) error {
	var data finance.NewBudget
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBudget")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	bgt, err := api.svc.CreateBudget(data)
	if err != nil {
		return errors.Wrap(err, "creating budget")
	}
	return ctx.JSON(http.StatusCreated, bgt)
}

func bindYearMonthParams(ctx echo.Context) (int, *int, error) {
	var year int
	var month *int
	if val := ctx.QueryParam("year"); val != "" {
		y, err := strconv.Atoi(val)
		if err != nil {
			return 0, nil, core.NewValidationError(nil, core.FieldError{Field: "year", Error: "must be a number"})
		}
		year = y
	}
	if val := ctx.QueryParam("month"); val != "" {
		m, err := strconv.Atoi(val)
		if err != nil {
			return 0, nil, core.NewValidationError(nil, core.FieldError{Field: "month", Error: "must be a number"})
		}
		month = &m
	}
	return year, month, nil
}

func (api *financeApi) queryBudgets(ctx echo.Context) error {
	year, month, err := bindYearMonthParams(ctx)
	if err != nil {
		return err
	}

	budgets, err := api.svc.QueryBudgets(year, month)
	if err != nil {
		return errors.Wrap(err, "querying budgets")
	}
	if budgets == nil {
		budgets = []finance.Budget{}
	}
	return ctx.JSON(http.StatusOK, budgets)
}

func (api *financeApi) retrieveBudget(ctx echo.Context) error {
	bgt, err := api.svc.GetBudget(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, bgt)
}

func (api *financeApi) updateBudget(ctx echo.Context) error {
	var data finance.UpdateBudget
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBudget")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	bgt, err := api.svc.UpdateBudget(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, bgt)
}

func (api *financeApi) destroyBudgets(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.DeleteBudgets(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting budgets")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *financeApi) budgetExecution(ctx echo.Context) error {
	year, month, err := bindYearMonthParams(ctx)
	if err != nil {
		return err
	}
	if year == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "year", Error: "this field is required"})
	}

	execs, err := api.svc.BudgetExecution(year, month)
	if err != nil {
		return errors.Wrap(err, "computing budget execution")
	}
	if execs == nil {
		execs = []finance.BudgetExecution{}
	}
	return ctx.JSON(http.StatusOK, execs)
}

// Reserve fund handlers

func (api *financeApi) createFund(ctx echo.Context) error {
	var data finance.NewReserveFund
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReserveFund")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	fund, err := api.svc.CreateFund(data)
	if err != nil {
		return errors.Wrap(err, "creating fund")
	}
	return ctx.JSON(http.StatusCreated, fund)
}

func (api *financeApi) queryFunds(ctx echo.Context) error {
	funds, err := api.svc.QueryFunds(core.CleanString(ctx.QueryParam("status"), true /* lower */))
	if err != nil {
		return errors.Wrap(err, "querying funds")
	}
	if funds == nil {
		funds = []finance.ReserveFund{}
	}
	return ctx.JSON(http.StatusOK, funds)
}

func (api *financeApi) retrieveFund(ctx echo.Context) error {
	fund, err := api.svc.GetFund(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, fund)
}

func (api *financeApi) updateFund(ctx echo.Context) error {
	var data finance.UpdateReserveFund
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateReserveFund")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	fund, err := api.svc.UpdateFund(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, fund)
}

func (api *financeApi) contribute(ctx echo.Context) error {
	var data finance.NewFundMovement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFundMovement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mvt, err := api.svc.Contribute(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, mvt)
}

func (api *financeApi) withdraw(ctx echo.Context) error {
	var data finance.NewFundMovement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFundMovement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mvt, err := api.svc.Withdraw(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, mvt)
}

func (api *financeApi) queryFundMovements(ctx echo.Context) error {
	mvts, err := api.svc.QueryFundMovements(ctx.Param("id"))
	if err != nil {
		return err
	}
	if mvts == nil {
		mvts = []finance.FundMovement{}
	}
	return ctx.JSON(http.StatusOK, mvts)
}
