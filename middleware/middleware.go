package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/base/delivery"
	"github.com/reimerr12/nft-marketplace/base/log"
	"github.com/reimerr12/nft-marketplace/base/metrics"
	"github.com/reimerr12/nft-marketplace/base/validator"
)

// GoMiddleware represent the data-struct for middleware
type GoMiddleware struct {
}

// InitMiddleware initialize the middleware
func InitMiddleware() *GoMiddleware {
	return &GoMiddleware{}
}

// AddContext adds custom context into echo
func (m *GoMiddleware) AddContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			cont := ctx.WithValue(ctx.Background(), "requestID", c.Response().Header().Get(echo.HeaderXRequestID))
			c.Set("ctx", cont)
			return next(c)
		}
	}
}

// ResponseLogger logs response for every request
func (m *GoMiddleware) ResponseLogger() echo.MiddlewareFunc {
	met := metrics.New("http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer met.BumpTime("request.time", "method", c.Request().Method, "path", c.Path()).End()

			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			fields := log.Fields{
				"ms":         time.Since(start).Seconds() * 1000,
				"httpStatus": res.Status,
				"host":       req.Host,
				"remoteIP":   c.RealIP(),
				"uri":        req.URL.Path,
				"httpMethod": req.Method,
				"size":       res.Size,
				"userAgent":  req.UserAgent(),
				"referer":    req.Header.Get("Referer"),
			}

			if res.Status >= 400 {
				fields["nextErr"] = err
			}

			c.Get("ctx").(ctx.Ctx).WithFields(fields).Info("response")
			return nil
		}
	}
}

func IsValidAddress(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			if !validator.IsValidAddress(c.Param(param)) {
				return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid address")
			}
			return next(c)
		}
	}
}
