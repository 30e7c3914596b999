package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"SpotCast/internal/domain/models"
	"SpotCast/internal/usecase"
	xhttp "SpotCast/pkg/http"
	xlogger "SpotCast/pkg/logger"
)

// ForecastEchoHandler exposes the forecast pipeline over HTTP.
type ForecastEchoHandler struct {
	logger     *xlogger.Logger
	forecaster *usecase.Forecaster
}

func NewForecastEchoHandler(logger *xlogger.Logger, forecaster *usecase.Forecaster) *ForecastEchoHandler {
	return &ForecastEchoHandler{logger: logger, forecaster: forecaster}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/prices", h.LivePrices)
	g.GET("/historical", h.Historical)
	g.POST("/train", h.Train)
	g.GET("/predict", h.Predict)
	g.GET("/model/metrics", h.ModelMetrics)
	g.GET("/catalog", h.Catalog)
}

func (h *ForecastEchoHandler) LivePrices(c echo.Context) error {
	req := &models.LivePricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// An absent region means every supported region.
	prices, err := h.forecaster.LivePrices(c.Request().Context(), req.Region)
	if err != nil {
		h.logger.Error("live prices error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.ListResponse(c, prices, int64(len(prices)))
}

func (h *ForecastEchoHandler) Historical(c echo.Context) error {
	req := &models.HistoricalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.forecaster.Historical(c.Request().Context(), req.Commodity, req.Region, req.Period)
	if err != nil {
		h.logger.Error("historical error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Train(c echo.Context) error {
	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.forecaster.Train(c.Request().Context(), req.Commodity, req.Region, req.Horizon)
	if err != nil {
		h.logger.Error("train error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.CreatedResponse(c, res)
}

func (h *ForecastEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.forecaster.Predict(c.Request().Context(), req.Commodity, req.Region, req.Horizon)
	if err != nil {
		h.logger.Error("predict error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) ModelMetrics(c echo.Context) error {
	req := &models.MetricsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	run, err := h.forecaster.LatestMetrics(c.Request().Context(), req.Commodity, req.Region)
	if err != nil {
		h.logger.Error("model metrics error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, run)
}

// Catalog serves the supported commodity and region sets.
func (h *ForecastEchoHandler) Catalog(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"commodities": models.Commodities(),
		"regions":     models.RegionNames(),
	})
}

// mapDomainError translates pipeline error kinds to transport statuses.
// The pipeline itself never produces a status code.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, models.ErrUnsupportedCommodity),
		errors.Is(err, models.ErrUnsupportedRegion):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrNoModelTrained):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrInsufficientData):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrMarketDataUnavailable),
		errors.Is(err, models.ErrRatesUnavailable):
		return xhttp.UpstreamError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrDuplicateVersion):
		return xhttp.ConflictError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrTrainingPersistenceFailed):
		return xhttp.InternalError(err.Error()).WithError(err)
	default:
		return err
	}
}
