package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/backend"
	"github.com/trezcool/masomo-web/core/tenant"
)

var (
	errHttpNotFound    = echo.NewHTTPError(http.StatusNotFound, "not found")
	errInvalidBody     = echo.NewHTTPError(http.StatusBadRequest, "بيانات الطلب غير صالحة")
	errMissingBody     = echo.NewHTTPError(http.StatusBadRequest, "بيانات الطلب مطلوبة")
	errMissingFile     = echo.NewHTTPError(http.StatusBadRequest, "لم يتم اختيار أي ملف")
	errMissingID       = echo.NewHTTPError(http.StatusBadRequest, "المعرف مطلوب")
	errInvalidID       = echo.NewHTTPError(http.StatusBadRequest, "معرف غير صالح")
	errUnknownAction   = echo.NewHTTPError(http.StatusNotFound, "unknown action")
	errUnknownAIKind   = echo.NewHTTPError(http.StatusNotFound, "unknown generation kind")
	errInvalidCalendar = echo.NewHTTPError(http.StatusBadRequest, "invalid year or month")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler turning every error into {"error": string}.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string

		origErr := errors.Cause(err)
		if origErr == tenant.ErrEmailRegistered {
			code = http.StatusConflict
			message = origErr.Error()
		} else {
			switch oErr := origErr.(type) {
			case *echo.HTTPError:
				if oErr.Internal != nil {
					if herr, ok := oErr.Internal.(*echo.HTTPError); ok {
						oErr = herr
					}
				}
				code = oErr.Code
				message = fmt.Sprint(oErr.Message)
			case *backend.Error:
				code = oErr.Status
				message = oErr.Message
				if code >= http.StatusInternalServerError {
					logger.Warn(fmt.Sprintf("%s %s: %s", ctx.Request().Method, ctx.Request().URL.Path, message), contextSession(ctx))
				}
			case validator.ValidationErrors:
				code = http.StatusBadRequest
				message = core.TranslateFirst(oErr, translator).Error
			case *core.ValidationError:
				code = http.StatusBadRequest
				message = oErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				message = http.StatusText(http.StatusInternalServerError)
				logger.Error(message, errors.Wrap(err, message), contextSession(ctx))

				if ctx.Echo().Debug {
					message = err.Error()
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, echo.Map{"error": message})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
