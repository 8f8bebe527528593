package http

import (
	"net/http"

	"options-trading/internal/dto"
	"options-trading/internal/lifecycle"
	"options-trading/internal/model"
	"options-trading/internal/repository"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupPlays(base *echo.Group) {
	v1 := base.Group("/v1/plays")
	{
		v1.GET("", h.ListPlays)
		v1.GET("/:filename", h.GetPlay)
		v1.PATCH("/:filename", h.UpdatePlay)
		v1.POST("/:filename/evaluate", h.EvaluatePlay)
		v1.POST("/:filename/fill", h.FillPlay)
		v1.POST("/:filename/close", h.ClosePlay)
	}
}

func (h *HttpAPIHandler) ListPlays(c echo.Context) error {
	folder := c.QueryParam("folder")
	if folder == "" {
		folder = repository.FolderOpen
	}

	filenames, err := h.repo.PlayStore.List(c.Request().Context(), folder)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", filenames))
}

func (h *HttpAPIHandler) GetPlay(c echo.Context) error {
	folder := c.QueryParam("folder")
	if folder == "" {
		folder = repository.FolderOpen
	}

	play, err := h.repo.PlayStore.Load(c.Request().Context(), folder, c.Param("filename"))
	if err != nil {
		return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, err.Error(), nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", play))
}

// UpdatePlay edits a play record. Contract-identity fields (symbol, trade
// type, strike, expiration) are only editable while the play is NEW.
func (h *HttpAPIHandler) UpdatePlay(c echo.Context) error {
	var req dto.UpdatePlayRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	folder := c.QueryParam("folder")
	if folder == "" {
		folder = repository.FolderNew
	}

	ctx := c.Request().Context()
	play, err := h.repo.PlayStore.Load(ctx, folder, c.Param("filename"))
	if err != nil {
		return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, err.Error(), nil))
	}

	if req.TouchesContractIdentity() && !lifecycle.CanEditContractIdentity(play) {
		return c.JSON(http.StatusConflict, dto.NewBaseResponse(http.StatusConflict, "contract-identity fields are only editable while the play is NEW", nil))
	}
	req.ApplyTo(play)

	if err := h.repo.PlayStore.Save(ctx, play); err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Play updated", play))
}

// FillPlay reports an opening-order fill from the order system and drives
// the NEW -> OPEN transition, including conditional sibling handling.
func (h *HttpAPIHandler) FillPlay(c echo.Context) error {
	folder := c.QueryParam("folder")
	if folder == "" {
		folder = repository.FolderNew
	}

	ctx := c.Request().Context()
	play, err := h.repo.PlayStore.Load(ctx, folder, c.Param("filename"))
	if err != nil {
		return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, err.Error(), nil))
	}

	if err := h.service.StateMachine.HandleFill(ctx, play); err != nil {
		return c.JSON(http.StatusConflict, dto.NewBaseResponse(http.StatusConflict, err.Error(), nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Play opened", play))
}

// ClosePlay ends an open play with an explicit close type.
func (h *HttpAPIHandler) ClosePlay(c echo.Context) error {
	var req dto.ClosePlayRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}
	if req.CloseType == "" {
		req.CloseType = string(model.CloseTypeManual)
	}

	folder := c.QueryParam("folder")
	if folder == "" {
		folder = repository.FolderOpen
	}

	ctx := c.Request().Context()
	play, err := h.repo.PlayStore.Load(ctx, folder, c.Param("filename"))
	if err != nil {
		return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, err.Error(), nil))
	}

	if err := h.service.StateMachine.Close(ctx, play, model.CloseType(req.CloseType), req.Reason); err != nil {
		return c.JSON(http.StatusConflict, dto.NewBaseResponse(http.StatusConflict, err.Error(), nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Play closed", play))
}

// EvaluatePlay runs a dry-run GTD evaluation and returns the per-policy
// results without persisting a decision.
func (h *HttpAPIHandler) EvaluatePlay(c echo.Context) error {
	folder := c.QueryParam("folder")
	if folder == "" {
		folder = repository.FolderOpen
	}

	ctx := c.Request().Context()
	play, err := h.repo.PlayStore.Load(ctx, folder, c.Param("filename"))
	if err != nil {
		return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, err.Error(), nil))
	}

	eval, err := h.service.OrchestratorService.EvaluatePlay(ctx, play)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", eval))
}
