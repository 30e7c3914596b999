package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"SpotCast/internal/domain/models"
	xhttp "SpotCast/pkg/http"
)

func TestMapDomainErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{models.ErrUnsupportedCommodity, http.StatusBadRequest},
		{models.ErrUnsupportedRegion, http.StatusBadRequest},
		{models.ErrNoModelTrained, http.StatusNotFound},
		{models.ErrInsufficientData, http.StatusUnprocessableEntity},
		{models.ErrMarketDataUnavailable, http.StatusBadGateway},
		{models.ErrRatesUnavailable, http.StatusBadGateway},
		{models.ErrDuplicateVersion, http.StatusConflict},
		{models.ErrTrainingPersistenceFailed, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		mapped := mapDomainError(fmt.Errorf("wrapped: %w", tc.err))
		var appErr *xhttp.AppError
		if !errors.As(mapped, &appErr) {
			t.Fatalf("%v did not map to AppError", tc.err)
		}
		if appErr.Status != tc.status {
			t.Fatalf("%v mapped to %d, want %d", tc.err, appErr.Status, tc.status)
		}
		if !errors.Is(mapped, tc.err) {
			t.Fatalf("mapped error lost its cause for %v", tc.err)
		}
	}
}

func TestMapDomainErrorPassthrough(t *testing.T) {
	plain := errors.New("something else")
	if mapDomainError(plain) != plain {
		t.Fatalf("unknown errors must pass through unchanged")
	}
}

func TestCatalogEndpoint(t *testing.T) {
	h := &ForecastEchoHandler{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Catalog(c); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var body struct {
		Data struct {
			Commodities []string `json:"commodities"`
			Regions     []string `json:"regions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Commodities) != 3 || len(body.Data.Regions) != 3 {
		t.Fatalf("unexpected catalog: %+v", body.Data)
	}
}
