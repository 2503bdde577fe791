package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-web/core/tenant"
)

type tenantApi struct {
	svc *tenant.Service
}

func registerTenantAPI(g *echo.Group, svc *tenant.Service) {
	api := tenantApi{svc: svc}
	g.POST("/register", api.register)
}

func (api *tenantApi) register(ctx echo.Context) error {
	var data tenant.Registration
	if err := ctx.Bind(&data); err != nil {
		return errInvalidBody
	}
	res, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
