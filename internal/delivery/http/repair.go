package http

import (
	"net/http"

	"options-trading/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupRepair(base *echo.Group) {
	v1 := base.Group("/v1/repair")
	{
		v1.POST("/run", h.RunRepair)
	}
}

func (h *HttpAPIHandler) RunRepair(c echo.Context) error {
	fixed, err := h.repo.PlayStore.CheckAndFixAllPlays(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Repair completed", map[string]int{"fixed_count": fixed}))
}
