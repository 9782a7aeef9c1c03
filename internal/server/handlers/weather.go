package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-snapshot/internal/onecall"
	"github.com/vzahanych/weather-snapshot/internal/refresh"
	"github.com/vzahanych/weather-snapshot/internal/server/utils"
	"github.com/vzahanych/weather-snapshot/internal/snapshot"
	"github.com/vzahanych/weather-snapshot/internal/state"
	"go.uber.org/zap"
)

type WeatherHandler struct {
	refresher *refresh.Refresher
	store     *state.Store
	logger    *zap.Logger
	now       func() time.Time
}

func NewWeatherHandler(refresher *refresh.Refresher, store *state.Store, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		refresher: refresher,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// GetWeather translates a fresh lookup for the requested coordinates. A
// failed lookup answers 502 with the error snapshot as body.
func (h *WeatherHandler) GetWeather(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	requestID := utils.GetRequestIDFromGinContext(c)

	reqLogger := h.logger.With(zap.String("request_id", requestID))

	_, hasLat := c.GetQuery("lat")
	_, hasLon := c.GetQuery("lon")
	if !hasLat || !hasLon {
		reqLogger.Warn("Missing coordinates")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: "lat and lon are required",
		})
		return
	}

	var req WeatherRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		reqLogger.Warn("Invalid request parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}

	if verrs := utils.ValidateStruct(req); len(verrs) > 0 {
		reqLogger.Warn("Coordinates out of range",
			zap.Float64("lat", req.Lat),
			zap.Float64("lon", req.Lon))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: verrs,
		})
		return
	}

	reqLogger.Info("Processing weather request",
		zap.Float64("lat", req.Lat),
		zap.Float64("lon", req.Lon))

	snap, err := h.refresher.Snapshot(ctx, onecall.Coordinates{Lat: req.Lat, Lon: req.Lon})
	if err != nil {
		reqLogger.Error("Failed to get weather snapshot", zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, NewWeatherResponse(snapshot.ErrorSnapshot(h.now().UTC()), h.now()))
		return
	}

	c.JSON(http.StatusOK, NewWeatherResponse(snap, h.now()))
}

// GetCurrent returns whatever the refresh loop published last.
func (h *WeatherHandler) GetCurrent(c *gin.Context) {
	snap := h.store.Current()
	if snap == nil {
		snap = snapshot.Placeholder(h.now().UTC())
	}

	resp := NewWeatherResponse(snap, h.now())
	resp.Loading = h.store.Loading()

	c.Header("Last-Modified", h.store.UpdatedAt().UTC().Format(http.TimeFormat))
	c.JSON(http.StatusOK, resp)
}
