package models

import "time"

// Requests for the forecast HTTP endpoints. Defined in domain for consistency and reuse.
// Commodity/region membership is checked by the usecase against the catalog,
// not by tag validation, so the error taxonomy stays in one place.

type PredictRequest struct {
	Commodity string `query:"commodity" json:"commodity" validate:"required"`
	Region    string `query:"region" json:"region" default:"us"`
	Horizon   int    `query:"horizon" json:"horizon" default:"1" validate:"gte=1,lte=30"`
}

type TrainRequest struct {
	Commodity string `query:"commodity" json:"commodity" validate:"required"`
	Region    string `query:"region" json:"region" default:"us"`
	Horizon   int    `query:"horizon" json:"horizon" default:"1" validate:"gte=1,lte=30"`
}

type HistoricalRequest struct {
	Commodity string `query:"commodity" json:"commodity" validate:"required"`
	Region    string `query:"region" json:"region" default:"us"`
	Period    string `query:"period" json:"period" default:"1y" validate:"oneof=1m 6m 1y 5y max"`
}

type LivePricesRequest struct {
	Region string `query:"region" json:"region"`
}

type MetricsRequest struct {
	Commodity string `query:"commodity" json:"commodity" validate:"required"`
	Region    string `query:"region" json:"region" default:"us"`
}

// Responses.

type LivePrice struct {
	Commodity string    `json:"commodity"`
	Region    string    `json:"region"`
	Currency  string    `json:"currency"`
	Unit      string    `json:"unit"`
	LivePrice float64   `json:"live_price"`
	Formatted string    `json:"formatted"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

type HistoricalPoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

type HistoricalResponse struct {
	Commodity string            `json:"commodity"`
	Region    string            `json:"region"`
	Currency  string            `json:"currency"`
	Unit      string            `json:"unit"`
	Rows      int               `json:"rows"`
	Data      []HistoricalPoint `json:"data"`
}

type TrainResponse struct {
	Commodity    string  `json:"commodity"`
	Region       string  `json:"region"`
	BestModel    string  `json:"best_model"`
	ModelVersion string  `json:"model_version"`
	RMSE         float64 `json:"rmse"`
	MAPE         float64 `json:"mape"`
}

type PredictionResponse struct {
	Commodity          string             `json:"commodity"`
	Region             string             `json:"region"`
	Currency           string             `json:"currency"`
	Unit               string             `json:"unit"`
	Horizon            int                `json:"horizon"`
	PointForecast      float64            `json:"point_forecast"`
	ConfidenceInterval [2]float64         `json:"confidence_interval"`
	Formatted          string             `json:"formatted"`
	Scenario           string             `json:"scenario"`
	ScenarioForecasts  map[string]float64 `json:"scenario_forecasts"`
	ModelUsed          string             `json:"model_used"`
}
