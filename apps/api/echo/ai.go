package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-web/core/backend"
)

// aiPaths maps the generation kinds to their backend endpoints.
var aiPaths = map[string]string{
	"lesson-plan":    "/ai/lesson-plan/",
	"quiz":           "/ai/quiz/",
	"report-comment": "/ai/report-comment/",
	"announcement":   "/ai/announcement/",
}

func registerAI(g *echo.Group, p *proxy) {
	g.POST("/ai/:kind", p.generate)
}

// generate is a write: backend failures propagate with their status.
func (p *proxy) generate(ctx echo.Context) error {
	path, ok := aiPaths[ctx.Param("kind")]
	if !ok {
		return errUnknownAIKind
	}
	body, err := bindJSONBody(ctx)
	if err != nil {
		return err
	}
	raw, err := p.client.Fetch(ctx.Request().Context(), contextSession(ctx), path, backend.Options{
		Method: http.MethodPost,
		Body:   body,
	})
	if err != nil {
		return err
	}
	return respondRaw(ctx, http.StatusOK, raw)
}
