package echoapi

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// CalendarQuery selects one month of calendar events; it defaults to the current month.
type CalendarQuery struct {
	Year  int
	Month int
}

func (q *CalendarQuery) Bind(ctx echo.Context) error {
	now := time.Now()
	q.Year, q.Month = now.Year(), int(now.Month())

	if val := strings.TrimSpace(ctx.QueryParam("year")); val != "" {
		year, err := strconv.Atoi(val)
		if err != nil || year < 1 || year > 9999 {
			return errInvalidCalendar
		}
		q.Year = year
	}
	if val := strings.TrimSpace(ctx.QueryParam("month")); val != "" {
		month, err := strconv.Atoi(val)
		if err != nil || month < 1 || month > 12 {
			return errInvalidCalendar
		}
		q.Month = month
	}
	return nil
}

func (q CalendarQuery) Values() url.Values {
	return url.Values{
		"year":  {strconv.Itoa(q.Year)},
		"month": {strconv.Itoa(q.Month)},
	}
}

// bindJSONBody returns the raw JSON request body. An empty body is errMissingBody; an invalid one errInvalidBody.
func bindJSONBody(ctx echo.Context) (json.RawMessage, error) {
	data, err := ioutil.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading request body")
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errMissingBody
	}
	if !json.Valid(data) {
		return nil, errInvalidBody
	}
	return json.RawMessage(data), nil
}

// pathID returns the :id route param, escaped for use as a backend path segment.
func pathID(ctx echo.Context) (string, error) {
	id := strings.TrimSpace(ctx.Param("id"))
	switch id {
	case "":
		return "", errMissingID
	case ".", "..":
		return "", errInvalidID
	}
	return url.PathEscape(id), nil
}
