package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"options-advisor/internal/dto"
)

func (h *HttpAPIHandler) SetupRecommendation(base *echo.Group) {
	recommendationGroup := base.Group("/recommendation")
	recommendationGroup.POST("", h.getRecommendation)
}

func (h *HttpAPIHandler) getRecommendation(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.AccountInfo)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	rec, err := h.service.AdvisorService.GetRecommendation(ctx, *req)
	if err != nil {
		var dataErr *dto.DataError
		if errors.As(err, &dataErr) {
			return c.JSON(http.StatusBadGateway, map[string]string{"error": dataErr.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to generate recommendation"})
	}

	return c.JSON(http.StatusOK, rec)
}
