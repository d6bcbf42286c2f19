package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/KaramelBytes/dashloom-cli/internal/engine"
	"github.com/KaramelBytes/dashloom-cli/internal/logging"
	"github.com/KaramelBytes/dashloom-cli/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, procOpts ...engine.Option) *httptest.Server {
	t.Helper()
	s := New(NewMetrics(), procOpts, WithLogger(logging.Discard()))
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

const salesBody = `{
  "rows": [
    {"region": "East", "sales": 10},
    {"region": "West", "sales": 5},
    {"region": "East", "sales": 7}
  ],
  "elements": [
    {"id": "k", "type": "KPI", "title": "Total", "metric": {"column": "sales", "operation": "SUM"}},
    {"id": "b", "type": "BarChart", "title": "By region",
     "metrics": [{"column": "sales", "operation": "SUM"}],
     "dimension": {"column": "region"}},
    {"id": "q", "type": "Table", "title": "Filtered", "dataSourceQuery": "SELECT * FROM ?"}
  ]
}`

func TestProcessEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, "/v1/process", salesBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Results, 3)

	kpi := out.Results[0]
	assert.Equal(t, "kpi", kpi["kind"])
	assert.EqualValues(t, 22, kpi["kpi"].(map[string]any)["value"])

	chart := out.Results[1]["chart"].(map[string]any)
	assert.Equal(t, "region", chart["dimensionKey"])
	data := chart["data"].([]any)
	require.Len(t, data, 2)
	assert.Equal(t, map[string]any{"region": "East", "sales": 17.0}, data[0])

	// No executor configured: the query element fails alone.
	failed := out.Results[2]
	assert.Equal(t, "error", failed["kind"])
	assert.Contains(t, failed["error"].(map[string]any)["message"], "no query executor configured")
}

func TestProcessEndpointUsesExecutor(t *testing.T) {
	exec := query.ExecutorFunc(func(_ context.Context, _ string, rows []dataset.Row) ([]dataset.Row, error) {
		return rows[:1], nil
	})
	ts := newTestServer(t, engine.WithExecutor(exec))
	resp := post(t, ts, "/v1/process", salesBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Results []engine.Result `json:"results"`
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotNil(t, out.Results[2].Chart)
	assert.Len(t, out.Results[2].Chart.Data, 1)
}

func TestProcessRejectsBadBodies(t *testing.T) {
	ts := newTestServer(t)
	cases := map[string]string{
		"malformed":   `{"rows": [`,
		"no elements": `{"rows": [], "elements": []}`,
		"missing id":  `{"rows": [], "elements": [{"type": "KPI"}]}`,
	}
	for name, body := range cases {
		resp := post(t, ts, "/v1/process", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
		assert.Equal(t, "bad_request", decode(t, resp)["code"], name)
	}
}

func TestStitchEndpoint(t *testing.T) {
	ts := newTestServer(t)
	body := `{
	  "chart": {"data": [{"m": "Jan", "v": 1}, {"m": "Feb", "v": 2}], "dimensionKey": "m", "metricKeys": ["v"], "chartType": "LineChart"},
	  "forecast": [{"m": "Mar", "v": 3}]
	}`
	resp := post(t, ts, "/v1/forecast/stitch", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decode(t, resp)["data"].([]any)
	require.Len(t, data, 3)
	assert.Equal(t, map[string]any{"m": "Mar", "v": 2.0, "v_forecast": 3.0}, data[2])

	resp = post(t, ts, "/v1/forecast/stitch", `{"forecast": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportCSVEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, "/v1/export/csv", `{"rows": [{"a": 1, "b": "x,y"}], "columns": ["a", "b"], "filename": "sales/q1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="sales_q1.csv"`, resp.Header.Get("Content-Disposition"))
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\"x,y\"\n", string(b))

	resp = post(t, ts, "/v1/export/csv", `{"rows": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "No data to export.", decode(t, resp)["message"])
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	post(t, ts, "/v1/process", salesBody)

	mresp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(mresp.Body)
	require.NoError(t, err)
	text := buf.String()
	assert.Contains(t, text, `dashloom_elements_processed_total{degraded="false",kind="kpi",type="KPI"} 1`)
	assert.Contains(t, text, `dashloom_elements_processed_total{degraded="false",kind="error",type="Table"} 1`)
	assert.Contains(t, text, `dashloom_http_requests_total{route="/v1/process",status="200"} 1`)
}

func TestRateLimit(t *testing.T) {
	s := New(NewMetrics(), nil, WithLogger(logging.Discard()), WithRateLimit(0.001, 1))
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)

	assert.Equal(t, http.StatusOK, post(t, ts, "/v1/process", salesBody).StatusCode)
	resp := post(t, ts, "/v1/process", salesBody)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate_limited", decode(t, resp)["code"])

	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
