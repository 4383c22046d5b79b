package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/flood-risk-service/internal/adapter/http"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

const scenarioA = `{"grids":[{"Elevation":200,"Road_Density":0.5,"Rain_mm":10,"Rain_Past3h":5,"Drain_Water_Level":0.5,"Soil_Moisture":0.3,"hour_of_day":12,"month":7,"day_of_week":2}]}`

func post(t *testing.T, srv http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPredict(t *testing.T) {
	for _, path := range []string{"/predict", "/prect"} {
		t.Run(path, func(t *testing.T) {
			svc := &mockService{}
			rec := post(t, newTestServer(svc), path, scenarioA)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			body := decode[struct {
				Results []domain.PredictionResult `json:"results"`
			}](t, rec)
			assert.Equal(t, []domain.PredictionResult{{Class: 1, Label: "Low", Confidence: 82.5}}, body.Results)

			require.Len(t, svc.grids, 1)
			assert.Equal(t, 10.0, svc.grids[0].RainMM)
			assert.Equal(t, domain.TimeComponents{HourOfDay: 12, Month: 7, DayOfWeek: 2}, svc.grids[0].TimeComponents)
		})
	}
}

func TestPredict_MissingField(t *testing.T) {
	svc := &mockService{}
	rec := post(t, newTestServer(svc), "/predict", `{"grids":[{"Elevation":200}]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "grids[0].Road_Density is required", body["detail"])
	assert.Nil(t, svc.grids)
}

func TestPredict_MalformedBody(t *testing.T) {
	tests := []struct{ name, body, want string }{
		{"empty", "", "request body is empty"},
		{"not json", "{oops", "invalid request body"},
		{"wrong type", `{"grids":[{"hour_of_day":"noon"}]}`, "invalid request body"},
		{"trailing data", `{"grids":[]} {}`, "trailing data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newTestServer(&mockService{}), "/predict", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec)["detail"], tt.want)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", domain.Invalidf("No grids provided"), http.StatusBadRequest},
		{"unavailable", domain.Unavailable("model artifacts", errors.New("model: missing")), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newTestServer(&mockService{err: tt.err}), "/predict", `{"grids":[]}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.err.Error(), decode[map[string]string](t, rec)["detail"])
		})
	}
}

type internalBody struct {
	Detail struct {
		Error string `json:"error"`
		Trace string `json:"trace"`
	} `json:"detail"`
}

func TestInternalError_TraceHiddenByDefault(t *testing.T) {
	rec := post(t, newTestServer(&mockService{err: errors.New("matrix dimension mismatch")}), "/predict", scenarioA)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[internalBody](t, rec)
	assert.Equal(t, "matrix dimension mismatch", body.Detail.Error)
	assert.Empty(t, body.Detail.Trace)
}

func TestInternalError_TraceExposed(t *testing.T) {
	srv := httpadapter.NewServer(":0", &mockService{err: errors.New("boom")}, true, discardLogger())
	rec := post(t, srv, "/predict", scenarioA)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[internalBody](t, rec)
	assert.Equal(t, "boom", body.Detail.Error)
	assert.Contains(t, body.Detail.Trace, "goroutine")
}

func TestPanicRecovered(t *testing.T) {
	srv := httpadapter.NewServer(":0", &mockService{panicMsg: "index out of range"}, true, discardLogger())
	rec := post(t, srv, "/predict", scenarioA)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[internalBody](t, rec)
	assert.Equal(t, "index out of range", body.Detail.Error)
	assert.Contains(t, body.Detail.Trace, "mockService")
}

func TestPredictLocation(t *testing.T) {
	svc := &mockService{}
	rec := post(t, newTestServer(svc), "/predict_location", `{"latitude":28.61,"longitude":77.15,"month":7}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 28.61, svc.loc.Latitude)
	require.NotNil(t, svc.loc.Month)
	assert.Equal(t, 7, *svc.loc.Month)
	assert.Nil(t, svc.loc.HourOfDay)

	body := decode[map[string]any](t, rec)
	assert.Contains(t, body, "location")
	assert.Contains(t, body, "derived_features")
	assert.Contains(t, body, "time_used")
	assert.Contains(t, body, "prediction")
}

func TestPredictLocation_RequiresCoordinates(t *testing.T) {
	rec := post(t, newTestServer(&mockService{}), "/predict_location", `{"latitude":28.61}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "latitude and longitude are required", decode[map[string]string](t, rec)["detail"])
}

func TestPredictDataset(t *testing.T) {
	svc := &mockService{}
	rec := post(t, newTestServer(svc), "/predict_dataset", `{"grid_id":17,"timestamp":"2025-07-15T14:00:00"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.dataset.GridID)
	assert.Equal(t, int64(17), *svc.dataset.GridID)
	require.NotNil(t, svc.dataset.Timestamp)
	assert.Equal(t, "2025-07-15T14:00:00", *svc.dataset.Timestamp)
	assert.Nil(t, svc.dataset.Latitude)

	body := decode[map[string]any](t, rec)
	assert.EqualValues(t, 17, body["grid_id"])
	usedRow, ok := body["used_row"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "exact", usedRow["match"])
	assert.Equal(t, "2025-07-15T14:00:00", usedRow["Hour"])
	assert.Contains(t, usedRow, "Rain_mm")
}
