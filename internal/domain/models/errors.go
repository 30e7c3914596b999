package models

import "errors"

// Error taxonomy for the forecasting core. Callers match with errors.Is;
// the HTTP layer maps each kind to a transport status.
var (
	// ErrUnsupportedCommodity reports a commodity outside the fixed catalog.
	ErrUnsupportedCommodity = errors.New("unsupported commodity")

	// ErrUnsupportedRegion reports a region outside the fixed catalog.
	ErrUnsupportedRegion = errors.New("unsupported region")

	// ErrMarketDataUnavailable reports an upstream feed failure with no
	// cached series to fall back on.
	ErrMarketDataUnavailable = errors.New("market data unavailable")

	// ErrRatesUnavailable reports that every FX source failed and no
	// snapshot has ever been cached.
	ErrRatesUnavailable = errors.New("fx rates unavailable")

	// ErrInsufficientData reports fewer feature rows than the training
	// minimum; a longer period is the remedy.
	ErrInsufficientData = errors.New("insufficient data to train")

	// ErrNoModelTrained reports that every candidate regressor failed.
	ErrNoModelTrained = errors.New("no model could be trained")

	// ErrDuplicateVersion reports a model_version uniqueness violation.
	// Recoverable: retry with a freshly generated version.
	ErrDuplicateVersion = errors.New("duplicate model version")

	// ErrTrainingPersistenceFailed reports a registry storage failure other
	// than a uniqueness violation.
	ErrTrainingPersistenceFailed = errors.New("training persistence failed")
)
