package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
	"github.com/nikas17mc/digital-technician-dashboard/internal/export"
	"github.com/nikas17mc/digital-technician-dashboard/internal/ledger"
	"github.com/nikas17mc/digital-technician-dashboard/internal/reporting"
	"github.com/nikas17mc/digital-technician-dashboard/internal/repository"
	"github.com/nikas17mc/digital-technician-dashboard/internal/settings"
	"github.com/nikas17mc/digital-technician-dashboard/internal/store"
)

var fixedNow = time.Date(2025, 3, 5, 14, 15, 16, 0, time.Local)

const validIMEI = "356938035643809"

type testEnv struct {
	router   http.Handler
	ledger   *ledger.Ledger
	settings *settings.Manager
	dir      string
}

type failingRepo struct{}

func (failingRepo) Load(ctx context.Context) ([]domain.RepairEvent, error) {
	return nil, repository.ErrNotFound
}

func (failingRepo) Save(ctx context.Context, events []domain.RepairEvent) error {
	return errors.New("disk full")
}

func (failingRepo) Remove(ctx context.Context) error { return nil }

func newTestEnv(t *testing.T, repo repository.LedgerRepository, opts ...reporting.Option) *testEnv {
	t.Helper()
	dir := t.TempDir()
	clock := func() time.Time { return fixedNow }

	sm := settings.NewManager(filepath.Join(dir, "config.json"), zap.NewNop(), settings.WithClock(clock))
	_, err := sm.Import([]byte(`{
		"workshop": {"technicians": ["A", "B"], "statusTypes": ["done", "In Arbeit"],
		             "completedStatus": "done", "inProgressStatus": "In Arbeit"},
		"paths": {"backupPath": ` + quote(filepath.Join(dir, "backups")) + `}
	}`))
	require.NoError(t, err)

	if repo == nil {
		repo = repository.NewFileStore(filepath.Join(dir, "ledger.json"))
	}
	l := ledger.New(context.Background(), repo, sm.KnownSets(), zap.NewNop(), ledger.WithClock(clock))

	cache := reporting.NewAnalysisCache(store.NewMemoryKV(), time.Minute, zap.NewNop())
	opts = append([]reporting.Option{reporting.WithClock(clock)}, opts...)
	engine := reporting.New(l, cache, zap.NewNop(), opts...)

	h := NewHandlers(l, engine, sm, zap.NewNop())
	return &testEnv{
		router:   NewRouter(h, []string{"*"}, zap.NewNop()),
		ledger:   l,
		settings: sm,
		dir:      dir,
	}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func (e *testEnv) do(t *testing.T, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, method, target, []byte(body), "application/json")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) Result[T] {
	t.Helper()
	var res Result[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	for _, req := range []ledger.AppendRequest{
		{Technician: "A", Date: "05.03.2025", EventType: "done", DeviceCount: 2, Identifiers: []string{validIMEI}},
		{Technician: "B", Date: "04.03.2025", EventType: "In Arbeit", DeviceCount: 3},
		{Technician: "A", Date: "01.01.2025", EventType: "done", DeviceCount: 1, Identifiers: []string{"123"}},
	} {
		_, err := e.ledger.Append(context.Background(), req)
		require.NoError(t, err)
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	res := decode[map[string]any](t, rec)
	assert.Equal(t, ResultSuccess, res.Code)
	assert.Equal(t, "ok", res.Result["status"])

	rec = env.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestAddEntry(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.doJSON(t, http.MethodPost, "/api/v1/data/add",
		`{"technician":"A","date":"05.03.2025","status":"done","count":3,"imei":["`+validIMEI+`"," ",""]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[addResponse](t, rec)
	assert.Equal(t, "success", res.Type)
	require.NotNil(t, res.Result.Entry)
	assert.Equal(t, 1, res.Result.Entry.ID)
	assert.Equal(t, []string{validIMEI, "", ""}, res.Result.Entry.Identifiers)
	assert.Equal(t, "05-03-2025_141516", res.Result.Entry.RecordedAt)
	assert.Equal(t, 1, env.ledger.Len())
}

func TestAddEntryTextIdentifiersAndStringCount(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.doJSON(t, http.MethodPost, "/api/v1/data/add",
		`{"technician":"B","date":"04.03.2025","status":"In Arbeit","count":"2","imei":"111\n\n222\n"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[addResponse](t, rec)
	assert.Equal(t, 2, res.Result.Entry.DeviceCount)
	assert.Equal(t, []string{"111", "222"}, res.Result.Entry.Identifiers)
}

func TestAddEntryValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.doJSON(t, http.MethodPost, "/api/v1/data/add", `{"technician":"","date":"2025-03-05","status":"done","count":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	res := decode[struct {
		Errors []ledger.FieldError `json:"errors"`
	}](t, rec)
	assert.Equal(t, "error", res.Type)
	fields := make([]string, 0, len(res.Result.Errors))
	for _, fe := range res.Result.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"technician", "date", "count"}, fields)
	assert.Zero(t, env.ledger.Len())

	rec = env.doJSON(t, http.MethodPost, "/api/v1/data/add", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddEntryPersistFailureWarns(t *testing.T) {
	env := newTestEnv(t, failingRepo{})

	rec := env.doJSON(t, http.MethodPost, "/api/v1/data/add", `{"technician":"A","date":"05.03.2025","status":"done","count":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[addResponse](t, rec)
	assert.Equal(t, "warning", res.Type)
	assert.NotNil(t, res.Result.Entry)
	assert.Equal(t, 1, env.ledger.Len())
}

func TestClearData(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rec := env.do(t, http.MethodPost, "/api/v1/data/clear", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, env.ledger.Len())

	_, err := os.Stat(filepath.Join(env.dir, "ledger.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestFilterData(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rec := env.do(t, http.MethodGet, "/api/v1/data/filter?startDate=01.03.2025&endDate=05.03.2025", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[filterResponse](t, rec)
	assert.Len(t, res.Result.Data, 2)
	assert.Equal(t, 2, res.Result.Summary["A"]["done"])
	assert.Equal(t, 3, res.Result.Summary["B"]["In Arbeit"])

	st := res.Result.Statistics
	assert.Equal(t, 3, st.TotalEntries)
	assert.Equal(t, 6, st.TotalDevices)
	assert.Equal(t, 2, st.FilteredEntries)
	assert.Equal(t, 5, st.FilteredDevices)
	assert.Equal(t, 1, st.FilteredIdentifiers)

	rec = env.do(t, http.MethodGet, "/api/v1/data/filter", nil, "")
	res = decode[filterResponse](t, rec)
	assert.Len(t, res.Result.Data, 3)
	assert.Equal(t, 3, res.Result.Summary["A"]["done"])
}

func TestSummaryAndStatistics(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rec := env.do(t, http.MethodGet, "/api/v1/data/summary?startDate=05.03.2025&endDate=05.03.2025", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[ledger.Summary](t, rec)
	assert.Equal(t, map[string]int{"done": 2, "In Arbeit": 0}, sum.Result["A"])

	rec = env.do(t, http.MethodGet, "/api/v1/data/summary?startDate=bad&endDate=05.03.2025", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/data/statistics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[ledger.Statistics](t, rec)
	assert.Equal(t, 3, st.Result.TotalEntries)
	assert.Equal(t, 2, st.Result.TodaySummary["done"])
}

const importBody = `[
	{"date_time":"01-03-2025_090000","technic":"A","event":"done","total_count":2,"imei":["` + validIMEI + `"]},
	{"technician":"B","status":"In Arbeit","count":"1","imei":"777"},
	{"technic":"B","event":"done","total_count":0}
]`

func TestImportDataJSONBody(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rec := env.doJSON(t, http.MethodPost, "/api/v1/data/import", importBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[ledger.ImportResult](t, rec)
	assert.Equal(t, ledger.ImportResult{Imported: 2, Skipped: 1}, res.Result)

	events := env.ledger.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "01.03.2025", events[0].DisplayDate)
	assert.Equal(t, 2, events[1].ID)

	rec = env.doJSON(t, http.MethodPost, "/api/v1/data/import", `{"not":"an array"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportDataMultipart(t *testing.T) {
	env := newTestEnv(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("jsonFile", "backup.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(importBody))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := env.do(t, http.MethodPost, "/api/v1/data/import", buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, env.ledger.Len())

	var empty bytes.Buffer
	mw = multipart.NewWriter(&empty)
	require.NoError(t, mw.Close())
	rec = env.do(t, http.MethodPost, "/api/v1/data/import", empty.Bytes(), mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportData(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rec := env.do(t, http.MethodGet, "/api/v1/data/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="workshop_data_20250305_141516.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, rec.Header().Get("X-Export-ID"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = env.do(t, http.MethodGet, "/api/v1/data/export?startDate=2025-01-01&endDate=05.03.2025", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackupData(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rec := env.do(t, http.MethodPost, "/api/v1/data/backup", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[map[string]string](t, rec)
	assert.Equal(t, filepath.Join(env.dir, "backups", "ledger_backup_20250305_141516.json"), res.Result["path"])
	assert.FileExists(t, res.Result["path"])
}

func TestTechnicians(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rec := env.do(t, http.MethodGet, "/api/v1/technicians", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[reporting.TechnicianOverview](t, rec)
	assert.Equal(t, "7", res.Result.Days)
	assert.Equal(t, 2, res.Result.Stats[0].TotalDevices)

	rec = env.do(t, http.MethodGet, "/api/v1/technicians?days=Alle", nil, "")
	res = decode[reporting.TechnicianOverview](t, rec)
	assert.Equal(t, 3, res.Result.Stats[0].TotalDevices)

	rec = env.do(t, http.MethodGet, "/api/v1/technicians?days=-1", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdentifierDetails(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rec := env.do(t, http.MethodGet, "/api/v1/identifiers/A/done", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[map[string]any](t, rec)
	assert.Equal(t, "done", res.Result["status"])
	assert.EqualValues(t, 2, res.Result["totalIMEIs"])
	assert.EqualValues(t, 1, res.Result["validIMEIs"])

	rec = env.do(t, http.MethodGet, "/api/v1/identifiers/B/In%20Arbeit", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[map[string]any](t, rec)
	assert.Equal(t, "In Arbeit", res.Result["status"])
}

func TestClassify(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.doJSON(t, http.MethodPost, "/api/v1/identifiers/classify", `["`+validIMEI+`", {"imei":"123456789012345"}, ""]`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[map[string]any](t, rec)
	items := res.Result["items"].([]any)
	require.Len(t, items, 3)
	first := items[0].(map[string]any)
	assert.Equal(t, true, first["isValid"])
	stats := res.Result["statistics"].(map[string]any)
	assert.EqualValues(t, 3, stats["total"])

	rec = env.doJSON(t, http.MethodPost, "/api/v1/identifiers/classify", `{"imeis":["`+validIMEI+`"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/v1/identifiers/classify", `{"imeis":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisData(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rec := env.do(t, http.MethodGet, "/api/v1/analysis/data?range=all", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[reporting.Analysis](t, rec)
	assert.Equal(t, 3, res.Result.Stats.TotalEntries)
	assert.Equal(t, []int{3, 3}, res.Result.Charts.TechPerformance.Data)

	rec = env.do(t, http.MethodGet, "/api/v1/analysis/data", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[reporting.Analysis](t, rec)
	assert.Equal(t, []int{2, 3}, res.Result.Charts.TechPerformance.Data)

	rec = env.do(t, http.MethodGet, "/api/v1/analysis/data?range=week", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisCacheInvalidatedByAppend(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rec := env.do(t, http.MethodGet, "/api/v1/analysis/data?range=all", nil, "")
	require.Equal(t, 3, decode[reporting.Analysis](t, rec).Result.Stats.TotalEntries)

	rec = env.doJSON(t, http.MethodPost, "/api/v1/data/add", `{"technician":"B","date":"05.03.2025","status":"done","count":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/analysis/data?range=all", nil, "")
	assert.Equal(t, 4, decode[reporting.Analysis](t, rec).Result.Stats.TotalEntries)

	rec = env.do(t, http.MethodPost, "/api/v1/analysis/clear-cache", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalysisReportAndIdentifierExport(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rec := env.do(t, http.MethodGet, "/api/v1/analysis/report?range=30", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "technician_report_20250305_141516.xlsx")

	rec = env.do(t, http.MethodGet, "/api/v1/analysis/report?range=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/analysis/export/identifiers?technician=A", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "imei_analysis_")
}

type stubReconciler struct{}

func (stubReconciler) Lookup(ctx context.Context, ids []string) (map[string]domain.ExternalRecord, error) {
	return map[string]domain.ExternalRecord{
		validIMEI: {Identifier: validIMEI, Technician: "A", Status: "done"},
	}, nil
}

func TestMismatch(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/analysis/mismatch", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	env = newTestEnv(t, nil, reporting.WithReconciler(stubReconciler{}))
	env.seed(t)

	rec = env.do(t, http.MethodGet, "/api/v1/analysis/mismatch?date=05.03.2025", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[reporting.MismatchReport](t, rec)
	assert.Equal(t, 1, res.Result.Statistics.PerfectMatches)
	assert.Equal(t, 100.0, res.Result.Statistics.MatchPercentage)

	rec = env.do(t, http.MethodGet, "/api/v1/analysis/mismatch?date=yesterday", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := env.settings.Import([]byte(`{"analysis":{"enableMismatchAnalysis":false},"workshop":{"technicians":["A"],"statusTypes":["done"]}}`))
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/api/v1/analysis/mismatch", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSettingsRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/settings", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[settings.Settings](t, rec)
	assert.Equal(t, []string{"A", "B"}, got.Result.Workshop.Technicians)

	rec = env.doJSON(t, http.MethodPut, "/api/v1/settings", `{"general":{"theme":"neon"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	bad := decode[struct {
		Errors []settings.Problem `json:"errors"`
	}](t, rec)
	require.Len(t, bad.Result.Errors, 1)
	assert.Equal(t, "general.theme", bad.Result.Errors[0].Field)

	backupDir := quote(filepath.Join(env.dir, "backups"))
	rec = env.doJSON(t, http.MethodPut, "/api/v1/settings", `{"general":{"theme":"light"},"paths":{"backupPath":`+backupDir+`}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[settings.Settings](t, rec)
	assert.Equal(t, "light", got.Result.General.Theme)

	rec = env.do(t, http.MethodGet, "/api/v1/settings/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[settings.ExportDocument](t, rec)
	assert.Equal(t, settings.Version, doc.Result.Version)

	rec = env.do(t, http.MethodPost, "/api/v1/settings/backup", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	backup := decode[map[string]string](t, rec).Result["path"]
	assert.FileExists(t, backup)

	rec = env.do(t, http.MethodPost, "/api/v1/settings/reset", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dark", env.settings.Get().General.Theme)

	// reset also restored the default backup path, so point it back first.
	_, err := env.settings.Import([]byte(`{"paths":{"backupPath":` + backupDir + `}}`))
	require.NoError(t, err)

	rec = env.doJSON(t, http.MethodPost, "/api/v1/settings/restore", `{"file":"../../`+filepath.Base(backup)+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "light", env.settings.Get().General.Theme)

	rec = env.doJSON(t, http.MethodPost, "/api/v1/settings/restore", `{"file":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/v1/settings/restore", `{"file":"missing.json"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), "no such file"))
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddEntryNumericIdentifiers(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.doJSON(t, http.MethodPost, "/api/v1/data/add",
		`{"technician":"A","date":"05.03.2025","status":"done","count":2,"imei":[356938035643809,"490154203237518"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[addResponse](t, rec)
	assert.Equal(t, "success", res.Type)
	assert.Equal(t, []string{validIMEI, "490154203237518"}, res.Result.Entry.Identifiers)
}

func TestAddEntryRejectsMalformedIdentifiers(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, imei := range []string{`["111", true]`, `{"imei":"111"}`, `[["111"]]`} {
		rec := env.doJSON(t, http.MethodPost, "/api/v1/data/add",
			`{"technician":"A","date":"05.03.2025","status":"done","count":2,"imei":`+imei+`}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, imei)

		res := decode[struct {
			Errors []ledger.FieldError `json:"errors"`
		}](t, rec)
		require.Len(t, res.Result.Errors, 1, imei)
		assert.Equal(t, "imei", res.Result.Errors[0].Field)
	}
	assert.Zero(t, env.ledger.Len())
}

func TestClassifyNumericIdentifiers(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.doJSON(t, http.MethodPost, "/api/v1/identifiers/classify", `[356938035643809, {"imei": 490154203237518}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[classifyResponse](t, rec)
	require.Len(t, res.Result.Items, 2)
	assert.Equal(t, validIMEI, res.Result.Items[0].Raw)
	assert.True(t, res.Result.Items[0].IsNumeric)
	assert.True(t, res.Result.Items[0].IsStructurallyValid)
	assert.Equal(t, "490154203237518", res.Result.Items[1].Raw)
}
