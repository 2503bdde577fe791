package echoapi

import (
	"encoding/json"
	"io/ioutil"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-web/core/actions"
	"github.com/trezcool/masomo-web/core/backend"
)

type actionsApi struct {
	client   *backend.Client
	registry actions.Registry
}

func registerActions(g *echo.Group, client *backend.Client, registry actions.Registry) {
	api := actionsApi{client: client, registry: registry}
	g.GET("", api.names)
	g.POST("/:name", api.execute)
}

func (api *actionsApi) names(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.registry.Names())
}

// execute always answers 200: the outcome is carried by the envelope.
func (api *actionsApi) execute(ctx echo.Context) error {
	act, ok := api.registry.Lookup(ctx.Param("name"))
	if !ok {
		return errUnknownAction
	}

	var payload actions.Payload
	data, err := ioutil.ReadAll(ctx.Request().Body)
	if err != nil {
		return ctx.JSON(http.StatusOK, actions.Fail(err.Error()))
	}
	if len(data) > 0 {
		if err = json.Unmarshal(data, &payload); err != nil {
			return ctx.JSON(http.StatusOK, actions.Fail(errInvalidBody.Message.(string)))
		}
	}

	res := act.Execute(ctx.Request().Context(), api.client, contextSession(ctx), payload)
	return ctx.JSON(http.StatusOK, res)
}
