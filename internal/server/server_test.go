package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/reportql/internal/adapters/database"
	"github.com/satishbabariya/reportql/internal/adapters/sqlstore"
	"github.com/satishbabariya/reportql/internal/adapters/storage"
	"github.com/satishbabariya/reportql/internal/adapters/telemetry"
	"github.com/satishbabariya/reportql/internal/core/report/compiler"
	"github.com/satishbabariya/reportql/internal/core/report/domain"
	"github.com/satishbabariya/reportql/internal/repository"
	"github.com/satishbabariya/reportql/internal/service"
)

type staticMetadata map[string]*domain.TableMetadata

func (m staticMetadata) TableMetadata(ctx context.Context, table string) (*domain.TableMetadata, error) {
	meta, ok := m[table]
	if !ok {
		return nil, domain.ErrTableNotFound
	}
	return meta, nil
}

var schoolMetadata = staticMetadata{
	"classes": {
		Name:    "classes",
		Columns: []domain.ColumnMetadata{{Name: "id"}, {Name: "title"}, {Name: "community_id"}},
		ForeignKeys: []domain.ForeignKey{
			{Name: "classes_community_fk", ColumnName: "community_id", ReferencedTable: "community", ReferencedColumn: "id"},
		},
	},
	"community": {
		Name:    "community",
		Columns: []domain.ColumnMetadata{{Name: "id"}, {Name: "name"}},
	},
}

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error {
	return p.err
}

type testAPI struct {
	srv     *httptest.Server
	mock    sqlmock.Sqlmock
	pinger  *fakePinger
	metrics *telemetry.MetricsTelemetry
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	client := sqlstore.NewClient(database.FromDB(db, database.PostgreSQL), schoolMetadata, nil)
	comp := compiler.NewReportCompiler(client, schoolMetadata, compiler.DefaultOptions())
	metrics := telemetry.NewMetricsTelemetry()
	reports := service.NewReportService(comp,
		repository.NewTemplateRepository(storage.NewMemoryStorage()),
		schoolMetadata, metrics, nil)

	pinger := &fakePinger{}
	s := NewServer(Config{Reports: reports, Health: pinger, Metrics: metrics})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testAPI{srv: srv, mock: mock, pinger: pinger, metrics: metrics}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

const provoSQL = `SELECT "classes"."title", "community"."name" AS "community.name" ` +
	`FROM "classes" INNER JOIN "community" ON "community"."id" = "classes"."community_id" ` +
	`WHERE "community"."name" = $1 ORDER BY "classes"."title" ASC LIMIT $2`

const provoBody = `{
	"table": "classes",
	"columns": ["title", "community.name"],
	"filters": [{"column": "community.name", "operator": "eq", "value": "Provo"}],
	"sort": {"column": "title", "direction": "asc"}
}`

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	api.pinger.err = errors.New("connection refused")
	resp, body = api.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "connection refused", body["error"])
}

func TestQuery_Post(t *testing.T) {
	api := newTestAPI(t)

	api.mock.ExpectQuery(regexp.QuoteMeta(provoSQL)).
		WithArgs("Provo", 100).
		WillReturnRows(sqlmock.NewRows([]string{"title", "community.name"}).AddRow("Pottery", "Provo"))

	resp, body := api.do(t, http.MethodPost, "/api/reports/query", provoBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, []any{
		map[string]any{"title": "Pottery", "community": map[string]any{"name": "Provo"}},
	}, body["data"])
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestQuery_Get(t *testing.T) {
	api := newTestAPI(t)

	api.mock.ExpectQuery(regexp.QuoteMeta(provoSQL)).
		WithArgs("Provo", 100).
		WillReturnRows(sqlmock.NewRows([]string{"title", "community.name"}).AddRow("Pottery", "Provo"))

	q := url.Values{}
	q.Set("table", "classes")
	q.Set("columns", "title,community.name")
	q.Add("filter", "community.name eq Provo")
	q.Add("sort", "title:asc")
	q.Set("strict", "true")

	resp, body := api.do(t, http.MethodGet, "/api/reports/query?"+q.Encode(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestQuery_FailSoftAndStrict(t *testing.T) {
	api := newTestAPI(t)

	api.mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))
	resp, body := api.do(t, http.MethodPost, "/api/reports/query", provoBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, body["data"])

	api.mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))
	resp, body = api.do(t, http.MethodPost, "/api/reports/query?strict=true", provoBody)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body["error"], "connection reset")
}

func TestQuery_ClientErrors(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "unknown operator", method: http.MethodPost, path: "/api/reports/query?strict=true",
			body: `{"table": "classes", "filters": [{"column": "title", "operator": "like", "value": "x"}]}`},
		{name: "missing table", method: http.MethodPost, path: "/api/reports/query?strict=true", body: `{}`},
		{name: "malformed json", method: http.MethodPost, path: "/api/reports/query", body: `{"table":`},
		{name: "unknown field", method: http.MethodPost, path: "/api/reports/query", body: `{"tabel": "classes"}`},
		{name: "bad filter expression", method: http.MethodGet, path: "/api/reports/query?table=classes&filter=title+like+x"},
		{name: "explain without table", method: http.MethodPost, path: "/api/reports/explain", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := api.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestExplain(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, http.MethodPost, "/api/reports/explain", provoBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "title,community!inner(name)", body["projection"])
	assert.Equal(t, provoSQL, body["sql"])
	assert.Equal(t, float64(100), body["limit"])
}

func TestTemplates(t *testing.T) {
	api := newTestAPI(t)

	resp, _ := api.do(t, http.MethodPut, "/api/reports/templates/provo-classes",
		`{"description": "Classes in Provo", "table": "classes", "columns": ["title", "community.name"],
		  "filters": [{"column": "community.name", "value": "Provo"}], "sort": [{"column": "title"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := api.do(t, http.MethodGet, "/api/reports/templates", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"provo-classes"}, body["templates"])

	resp, body = api.do(t, http.MethodGet, "/api/reports/templates/provo-classes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "provo-classes", body["name"])
	assert.Equal(t, "classes", body["table"])

	api.mock.ExpectQuery(regexp.QuoteMeta(provoSQL)).
		WithArgs("Provo", 100).
		WillReturnRows(sqlmock.NewRows([]string{"title", "community.name"}).AddRow("Pottery", "Provo"))
	resp, body = api.do(t, http.MethodPost, "/api/reports/templates/provo-classes/run?strict=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)

	resp, _ = api.do(t, http.MethodDelete, "/api/reports/templates/provo-classes", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = api.do(t, http.MethodGet, "/api/reports/templates/provo-classes", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPost, "/api/reports/templates/provo-classes/run", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPut, "/api/reports/templates/bad.name", `{"table": "classes"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTable(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, http.MethodGet, "/api/tables/classes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "classes", body["name"])
	assert.Len(t, body["foreignKeys"], 1)

	resp, _ = api.do(t, http.MethodGet, "/api/tables/rooms", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	api := newTestAPI(t)

	api.mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow("Pottery"))
	api.do(t, http.MethodGet, "/api/reports/query?table=classes&columns=title", "")

	resp, body := api.do(t, http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tables, ok := body["tables"].(map[string]any)
	require.True(t, ok)
	classes, ok := tables["classes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), classes["runs"])
}

func TestMetrics_Disabled(t *testing.T) {
	srv := httptest.NewServer(NewServer(Config{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrTemplateNotFound))
	assert.Equal(t, http.StatusNotFound, statusFor(&domain.ReportError{Code: "metadata", Cause: domain.ErrTableNotFound}))
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ErrInvalidTemplateName))
	assert.Equal(t, http.StatusBadRequest, statusFor(&domain.ReportError{Code: "compile", Cause: domain.ErrNoRelationship}))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(service.ErrNoDatabase))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestServeListener_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(Config{ShutdownTimeout: time.Second})

	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
