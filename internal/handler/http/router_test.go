package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/bootstrap"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/config"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app    *bootstrap.App
	jwt    jwt.Service
	router http.Handler
	clock  *clock.Fixed
}

// Tuesday 2025-04-01 09:00 UTC
var testNow = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	cfg := &config.Config{
		App:   config.AppConfig{Port: 8080, Env: "test", Timezone: time.UTC},
		Store: config.StoreConfig{Driver: config.StoreDriverFile, Path: filepath.Join(dir, "state.json"), LockTimeout: time.Second},
		Shift: config.ShiftConfig{
			Epoch:            calendar.MustParse("2024-01-01"),
			SlotStart:        "05:00",
			SlotEnd:          "22:00",
			SlotStep:         30 * time.Minute,
			ManagerOnlySlots: []string{"06:30", "08:00"},
			MonthlyQuota:     4,
		},
		Backup: config.BackupConfig{Dir: filepath.Join(dir, "backups"), Keep: 2, Interval: time.Hour},
	}
	clk := clock.NewFixed(testNow)
	app, err := bootstrap.New(ctx, cfg, clk)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	system := audit.System("test")
	for _, id := range []string{"ana", "luis"} {
		_, err := app.Employees.Register(ctx, system, employee.RegisterRequest{ID: id, FullName: strings.ToUpper(id), HourlyRate: "10000"})
		require.NoError(t, err)
	}

	jwtService := jwt.NewJWTService("test-secret", time.Hour)
	router := NewRouter(RouterConfig{Env: "test", AllowedOrigins: []string{"*"}, LogLevel: slog.LevelError}, jwtService, Handlers{
		Attendance: NewAttendanceHandler(app.TimeClock, clk),
		Shift:      NewShiftHandler(app.Scheduler),
		Employee:   NewEmployeeHandler(app.Employees),
		Audit:      NewAuditHandler(app.Audit, app.Store, jwtService),
		Report:     NewReportHandler(app.Reports),
		Backup:     NewBackupHandler(app.Backups),
	})
	return &testEnv{app: app, jwt: jwtService, router: router, clock: clk}
}

func (e *testEnv) token(t *testing.T, id string, admin bool) string {
	token, _, err := e.jwt.GenerateAccessToken(id, admin)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestAttendanceRoutes(t *testing.T) {
	env := newTestEnv(t)
	ana := env.token(t, "ana", false)

	rec, body := env.do(t, http.MethodPost, "/api/v1/attendance/clock-in", ana, map[string]string{"timestamp": "2025-04-01 08:00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])

	rec, _ = env.do(t, http.MethodPost, "/api/v1/attendance/clock-in", ana, map[string]string{"timestamp": "2025-04-01 08:30"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = env.do(t, http.MethodPost, "/api/v1/attendance/clock-out", ana, map[string]string{"timestamp": "2025-04-01 18:00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := body["data"].(map[string]any)
	assert.Equal(t, 8.0, data["ordinary_hours"])
	assert.Equal(t, 1.0, data["overtime_hours"])

	rec, _ = env.do(t, http.MethodPost, "/api/v1/attendance/clock-out", ana, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/attendance/clock-in", ana, map[string]string{"employee_id": "luis"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/attendance/clock-in", ana, map[string]string{"timestamp": "yesterday"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body = env.do(t, http.MethodGet, "/api/v1/attendance?from=2025-04-01&to=2025-04-30", ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/api/v1/attendance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sse, _, err := env.jwt.GenerateSSEToken("ana", true)
	require.NoError(t, err)
	rec, _ = env.do(t, http.MethodGet, "/api/v1/attendance", sse, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "stream tokens are not access tokens")

	rec, _ = env.do(t, http.MethodGet, "/api/v1/admin/employees", env.token(t, "ana", false), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestShiftRoutes(t *testing.T) {
	env := newTestEnv(t)
	ana := env.token(t, "ana", false)
	luis := env.token(t, "luis", false)

	rec, body := env.do(t, http.MethodGet, "/api/v1/shifts/catalog", ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4.0, body["data"].(map[string]any)["monthly_quota"])

	rec, _ = env.do(t, http.MethodPost, "/api/v1/shifts/select", ana, map[string]string{"slot_time": "09:00", "date": "2025-04-02"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = env.do(t, http.MethodPost, "/api/v1/shifts/select", luis, map[string]string{"slot_time": "09:00", "date": "2025-04-02"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/shifts/select", luis, map[string]string{"slot_time": "08:00", "date": "2025-04-02"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "manager-only slot")

	rec, _ = env.do(t, http.MethodPost, "/api/v1/shifts/release", luis, map[string]string{"employee_id": "ana", "slot_time": "09:00", "date": "2025-04-02"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/shifts/release", ana, map[string]string{"slot_time": "09:00", "date": "2025-04-02"})
	assert.Equal(t, http.StatusOK, rec.Code)

	admin := env.token(t, "boss", true)
	rec, _ = env.do(t, http.MethodPut, "/api/v1/admin/rotations/ana", admin, map[string][]string{"slots": {"06:00", "14:00"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, body = env.do(t, http.MethodPost, "/api/v1/admin/shifts/auto-assign", admin, map[string]string{"employee_id": "ana", "week_start": "2025-04-07"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, body["data"].(map[string]any)["created"], 6)

	rec, _ = env.do(t, http.MethodPut, "/api/v1/admin/shifts/ana/2025-03-20", admin, map[string]any{"slot_time": nil})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "past removal")
}

func TestReportHidesCostsFromEmployees(t *testing.T) {
	env := newTestEnv(t)
	ana := env.token(t, "ana", false)
	env.do(t, http.MethodPost, "/api/v1/attendance/clock-in", ana, map[string]string{"timestamp": "2025-04-01 08:00"})
	env.do(t, http.MethodPost, "/api/v1/attendance/clock-out", ana, map[string]string{"timestamp": "2025-04-01 18:00"})

	rec, body := env.do(t, http.MethodGet, "/api/v1/reports/summary?from=2025-04-01&to=2025-04-30", ana, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rows := body["data"].(map[string]any)["employees"].([]any)
	require.Len(t, rows, 1)
	assert.NotContains(t, rows[0].(map[string]any), "costs")

	rec, body = env.do(t, http.MethodGet, "/api/v1/reports/summary?from=2025-04-01&to=2025-04-30", env.token(t, "boss", true), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows = body["data"].(map[string]any)["employees"].([]any)
	assert.Contains(t, rows[0].(map[string]any), "costs")

	rec, _ = env.do(t, http.MethodGet, "/api/v1/reports/summary?from=2025-04-01&to=2025-04-30&employee_id=luis", ana, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminAuditAndLedger(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "boss", true)

	rec, _ := env.do(t, http.MethodPost, "/api/v1/admin/audit", admin, map[string]string{"detail": "quarterly review"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body := env.do(t, http.MethodGet, "/api/v1/admin/audit?actor=boss&limit=10", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)

	rec, body = env.do(t, http.MethodGet, "/api/v1/admin/ledger/4/1", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["data"])

	rec, _ = env.do(t, http.MethodGet, "/api/v1/admin/ledger/13/1", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/admin/backups", admin, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAuditStream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	token, _, err := env.jwt.GenerateSSEToken("boss", true)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/admin/audit/stream?jwt="+token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	_, err = env.app.Audit.Append(context.Background(), audit.System("test"), audit.ActionNote, "hello stream")
	require.NoError(t, err)

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") && strings.Contains(line, "hello stream") {
			break
		}
	}
}
