package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-web/core/backend"
	"github.com/trezcool/masomo-web/core/school"
	"github.com/trezcool/masomo-web/core/session"
)

const recentAnnouncements = 5

// Dashboard is the home page summary. Degraded lists the parts that could not be read.
type Dashboard struct {
	Students      int                   `json:"students"`
	Teachers      int                   `json:"teachers"`
	Classes       int                   `json:"classes"`
	Subjects      int                   `json:"subjects"`
	Announcements []school.Announcement `json:"announcements"`
	Degraded      []string              `json:"degraded"`
}

func registerDashboard(g *echo.Group, p *proxy) {
	g.GET("/dashboard", p.dashboard)
}

// dashboard reads its parts concurrently; each part degrades on its own.
func (p *proxy) dashboard(ctx echo.Context) error {
	sess := contextSession(ctx)
	dash := Dashboard{Announcements: []school.Announcement{}, Degraded: []string{}}

	var mu sync.Mutex
	degrade := func(name string, err error) {
		readFallbacks.Add("dashboard/"+name, 1)
		p.logger.Warn(fmt.Sprintf("GET /api/dashboard: %s unavailable: %v", name, err), sess)
		mu.Lock()
		dash.Degraded = append(dash.Degraded, name)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx.Request().Context())
	g.SetLimit(4)

	counts := []struct {
		name string
		path string
		dst  *int
	}{
		{"students", "/students/", &dash.Students},
		{"teachers", "/teachers/", &dash.Teachers},
		{"classes", "/classes/", &dash.Classes},
		{"subjects", "/subjects/", &dash.Subjects},
	}
	for _, c := range counts {
		c := c
		g.Go(func() error {
			n, err := p.count(gctx, sess, c.path)
			if err != nil {
				degrade(c.name, err)
				return nil
			}
			*c.dst = n
			return nil
		})
	}
	g.Go(func() error {
		raw, err := p.client.Fetch(gctx, sess, "/announcements/", backend.Options{
			Query: url.Values{"ordering": {"-created_at"}, "limit": {fmt.Sprint(recentAnnouncements)}},
		})
		var items []school.Announcement
		if err == nil {
			items, err = backend.List[school.Announcement](raw)
		}
		if err != nil {
			degrade("announcements", err)
			return nil
		}
		if len(items) > recentAnnouncements {
			items = items[:recentAnnouncements]
		}
		dash.Announcements = items
		return nil
	})
	_ = g.Wait() // parts never fail the whole

	if len(dash.Degraded) > 0 {
		sort.Strings(dash.Degraded)
		ctx.Response().Header().Set(HeaderDataFallback, "1")
	}
	return ctx.JSON(http.StatusOK, dash)
}

// count returns the size of a collection. Paginated bodies carry it in "count"; bare arrays are counted.
func (p *proxy) count(ctx context.Context, sess session.Session, path string) (int, error) {
	raw, err := p.client.Fetch(ctx, sess, path, backend.Options{})
	if err != nil {
		return 0, err
	}
	if len(raw) > 0 && raw[0] == '{' {
		page, err := backend.Decode[struct {
			Count *int `json:"count"`
		}](raw)
		if err != nil {
			return 0, err
		}
		if page.Count != nil {
			return *page.Count, nil
		}
	}
	items, err := backend.List[json.RawMessage](raw)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
