package echoapi

import (
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/backend"
	"github.com/trezcool/masomo-web/core/school"
)

// HeaderDataFallback is set on read responses that were substituted because the backend call failed.
const HeaderDataFallback = "X-Data-Fallback"

// readFallbacks counts substituted reads per resource; exposed under /debug/vars.
var readFallbacks = expvar.NewMap("proxy_read_fallbacks")

type (
	// proxy adapts browser requests into backend calls made with the caller's session.
	proxy struct {
		client *backend.Client
		logger core.Logger
	}

	resource struct {
		name string // route, relative to /api
		path string // backend collection path
		// validate checks that a list body holds items of the resource's type.
		validate func(raw json.RawMessage) error
		// query builds the backend query of list reads; the inbound query is forwarded when nil.
		query func(ctx echo.Context) (url.Values, error)
	}
)

func listOf[T any](raw json.RawMessage) error {
	_, err := backend.List[T](raw)
	return err
}

var resources = []resource{
	{name: "students", path: "/students/", validate: listOf[school.Student]},
	{name: "teachers", path: "/teachers/", validate: listOf[school.Teacher]},
	{name: "classes", path: "/classes/", validate: listOf[school.Class]},
	{name: "subjects", path: "/subjects/", validate: listOf[school.Subject]},
	{name: "attendance", path: "/attendance/", validate: listOf[school.AttendanceRecord]},
	{name: "grades", path: "/grades/", validate: listOf[school.Grade]},
	{name: "finance/payments", path: "/finance/payments/", validate: listOf[school.FeePayment]},
	{name: "finance/fees", path: "/finance/fees/", validate: listOf[school.Fee]},
	{name: "schedule", path: "/schedule/", validate: listOf[school.ScheduleSlot]},
	{name: "announcements", path: "/announcements/", validate: listOf[school.Announcement]},
	{name: "calendar/events", path: "/calendar/events/", validate: listOf[school.CalendarEvent], query: calendarQuery},
}

func registerResources(g *echo.Group, p *proxy) {
	for _, res := range resources {
		res := res
		rg := g.Group("/" + res.name)
		rg.GET("", p.list(res))
		rg.POST("", p.create(res))
		rg.GET("/:id", p.retrieve(res))
		rg.PUT("/:id", p.update(res))
		rg.DELETE("/:id", p.destroy(res))
	}
}

func calendarQuery(ctx echo.Context) (url.Values, error) {
	var q CalendarQuery
	if err := q.Bind(ctx); err != nil {
		return nil, err
	}
	return q.Values(), nil
}

func (res resource) detailPath(id string) string {
	return res.path + id + "/"
}

// Handlers

// list never fails because of the backend: any failure is served as an empty list.
func (p *proxy) list(res resource) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		query := ctx.QueryParams()
		if res.query != nil {
			var err error
			if query, err = res.query(ctx); err != nil {
				return err
			}
		}

		raw, err := p.client.Fetch(ctx.Request().Context(), contextSession(ctx), res.path, backend.Options{Query: query})
		if err == nil {
			err = res.validate(raw)
		}
		if err != nil {
			return p.emptyList(ctx, res.name, err)
		}

		items, err := backend.List[json.RawMessage](raw)
		if err != nil {
			return p.emptyList(ctx, res.name, err)
		}
		return ctx.JSON(http.StatusOK, items)
	}
}

func (p *proxy) create(res resource) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		body, err := bindJSONBody(ctx)
		if err != nil {
			return err
		}
		raw, err := p.client.Fetch(ctx.Request().Context(), contextSession(ctx), res.path, backend.Options{
			Method: http.MethodPost,
			Body:   body,
		})
		if err != nil {
			return err
		}
		return respondRaw(ctx, http.StatusCreated, raw)
	}
}

func (p *proxy) retrieve(res resource) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := pathID(ctx)
		if err != nil {
			return err
		}
		raw, err := p.client.Fetch(ctx.Request().Context(), contextSession(ctx), res.detailPath(id), backend.Options{})
		if err != nil {
			return err
		}
		return respondRaw(ctx, http.StatusOK, raw)
	}
}

func (p *proxy) update(res resource) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := pathID(ctx)
		if err != nil {
			return err
		}
		body, err := bindJSONBody(ctx)
		if err != nil {
			return err
		}
		raw, err := p.client.Fetch(ctx.Request().Context(), contextSession(ctx), res.detailPath(id), backend.Options{
			Method: http.MethodPut,
			Body:   body,
		})
		if err != nil {
			return err
		}
		return respondRaw(ctx, http.StatusOK, raw)
	}
}

func (p *proxy) destroy(res resource) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := pathID(ctx)
		if err != nil {
			return err
		}
		raw, err := p.client.Fetch(ctx.Request().Context(), contextSession(ctx), res.detailPath(id), backend.Options{
			Method: http.MethodDelete,
		})
		if err != nil {
			return err
		}
		if raw == nil {
			return ctx.NoContent(http.StatusNoContent)
		}
		return ctx.JSONBlob(http.StatusOK, raw)
	}
}

// emptyList serves [] with 200, flagged with HeaderDataFallback.
func (p *proxy) emptyList(ctx echo.Context, name string, err error) error {
	readFallbacks.Add(name, 1)
	p.logger.Warn(fmt.Sprintf("GET /api/%s: serving an empty list: %v", name, err), contextSession(ctx))
	ctx.Response().Header().Set(HeaderDataFallback, "1")
	return ctx.JSON(http.StatusOK, []json.RawMessage{})
}

// respondRaw writes a backend JSON body as is; an empty body becomes {}.
func respondRaw(ctx echo.Context, code int, raw json.RawMessage) error {
	if raw == nil {
		raw = json.RawMessage("{}")
	}
	return ctx.JSONBlob(code, raw)
}
