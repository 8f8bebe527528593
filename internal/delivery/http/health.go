package http

import (
	"net/http"

	"options-trading/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) Health(c echo.Context) error {
	data := map[string]interface{}{
		"heartbeat_age_seconds": h.service.Heartbeat.Age().Seconds(),
		"policies":              h.service.Registry.Names(),
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", data))
}
