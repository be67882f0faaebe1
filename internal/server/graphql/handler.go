package gqlserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/and161185/devfolio/internal/errs"
)

type request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

// Handler serves POST /graphql. It expects the identity, when present, to be
// in the request context already (see httpserver.Identify). Resolver errors
// are reported in the result body with status 200.
func (s *Schema) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req request
		if err := c.Bind(&req); err != nil {
			return fmt.Errorf("%w: malformed graphql request", errs.ErrBadRequest)
		}
		if strings.TrimSpace(req.Query) == "" {
			return fmt.Errorf("%w: query is required", errs.ErrBadRequest)
		}
		ctx := withClientIP(c.Request().Context(), c.RealIP())
		res := s.Do(ctx, req.Query, req.Variables, req.OperationName)
		return c.JSON(http.StatusOK, res)
	}
}
