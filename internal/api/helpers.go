package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/vkautotune/internal/bench"
)

func writeBadRequest(c *echo.Context, msg, param string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, param)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "")
}

func writeError(c *echo.Context, status int, errType, msg, param string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Param:   param,
		},
	})
}

// parseStatuses reads a comma separated status filter.
func parseStatuses(raw string) ([]bench.Status, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []bench.Status
	for part := range strings.SplitSeq(raw, ",") {
		s := bench.Status(strings.ToUpper(strings.TrimSpace(part)))
		if s == "" {
			continue
		}
		if !s.Valid() {
			return nil, newInvalidRequest(fmt.Sprintf("unknown status %q", part))
		}
		out = append(out, s)
	}
	return out, nil
}

func parseLimit(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, newInvalidRequest(fmt.Sprintf("n must be a non-negative integer, got %q", raw))
	}
	return n, nil
}

func requestError(c *echo.Context, err error, param string) error {
	if errors.Is(err, ErrInvalidRequest) {
		return writeBadRequest(c, err.Error(), param)
	}
	return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "")
}
