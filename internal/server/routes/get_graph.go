package routes

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/readloom/readloom/internal/server/middleware"
	"github.com/readloom/readloom/pkg/common"
	graphstorage "github.com/readloom/readloom/pkg/store/pgx"
	"github.com/readloom/readloom/pkg/view"

	"github.com/labstack/echo/v4"
)

// parseListParam reads a query key that may be repeated and/or comma-joined,
// keeping only values from the allowed set. Nil means "no filter".
func parseListParam[T ~string](c echo.Context, key string, allowed []T) []T {
	values := c.QueryParams()[key]
	if len(values) == 0 {
		return nil
	}

	allowedSet := make(map[T]struct{}, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = struct{}{}
	}

	var parsed []T
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			candidate := T(strings.TrimSpace(part))
			if _, ok := allowedSet[candidate]; ok {
				parsed = append(parsed, candidate)
			}
		}
	}
	return parsed
}

func parseNumberParam(c echo.Context, key string) int {
	raw := c.QueryParam(key)
	if raw == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int(parsed)
}

func parseTimeParam(c echo.Context, key string) *time.Time {
	raw := c.QueryParam(key)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// GetGraphHandler returns the authenticated user's graph, filtered by the
// query parameters: nodeTypes, edgeTypes, startDate, endDate, nodeLimit,
// edgeLimit. Unknown type values and unparsable numbers or dates are
// ignored rather than rejected.
func GetGraphHandler(c echo.Context) error {
	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	filters := view.Filters{
		NodeTypes: parseListParam(c, "nodeTypes", common.NodeTypes),
		EdgeTypes: parseListParam(c, "edgeTypes", common.EdgeTypes),
		StartDate: parseTimeParam(c, "startDate"),
		EndDate:   parseTimeParam(c, "endDate"),
		NodeLimit: parseNumberParam(c, "nodeLimit"),
		EdgeLimit: parseNumberParam(c, "edgeLimit"),
	}

	conn := c.(*middleware.AppContext).App.DBConn
	service := view.NewService(graphstorage.NewGraphDBStorage(conn))

	result, err := service.FetchGraph(c.Request().Context(), user.UserID, filters)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{"data": result})
}
