package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andes-io/riverwatch/internal/models"
	"github.com/andes-io/riverwatch/internal/storage"
)

type mockAlertRepository struct {
	alerts      []*models.Alert
	summary     *storage.AlertSummary
	getError    error
	updateError error
	listError   error
}

func (m *mockAlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *mockAlertRepository) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for _, a := range m.alerts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAlertRepository) Update(ctx context.Context, alert *models.Alert) error {
	if m.updateError != nil {
		return m.updateError
	}
	for i, a := range m.alerts {
		if a.ID == alert.ID {
			m.alerts[i] = alert
		}
	}
	return nil
}

func (m *mockAlertRepository) List(ctx context.Context, limit, offset int) ([]*models.Alert, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	return m.alerts, nil
}

func (m *mockAlertRepository) ListActive(ctx context.Context) ([]*models.Alert, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	var out []*models.Alert
	for _, a := range m.alerts {
		if a.Status == models.AlertStatusActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAlertRepository) FindActive(ctx context.Context, sensorID string, severity models.Severity, titleContains string) (*models.Alert, error) {
	return nil, nil
}

func (m *mockAlertRepository) FindActiveByRule(ctx context.Context, sensorID string, severity models.Severity, ruleID string) (*models.Alert, error) {
	return nil, nil
}

func (m *mockAlertRepository) Summary(ctx context.Context, now time.Time) (*storage.AlertSummary, error) {
	if m.summary == nil {
		return &storage.AlertSummary{}, nil
	}
	return m.summary, nil
}

type mockStorage struct {
	alertRepo *mockAlertRepository
}

func (m *mockStorage) Open() error    { return nil }
func (m *mockStorage) Close() error   { return nil }
func (m *mockStorage) Migrate() error { return nil }

func (m *mockStorage) Rivers() storage.RiverRepository               { return nil }
func (m *mockStorage) Sensors() storage.SensorRepository             { return nil }
func (m *mockStorage) Readings() storage.ReadingRepository           { return nil }
func (m *mockStorage) Rules() storage.RuleRepository                 { return nil }
func (m *mockStorage) Alerts() storage.AlertRepository               { return m.alertRepo }
func (m *mockStorage) Channels() storage.ChannelRepository           { return nil }
func (m *mockStorage) Notifications() storage.NotificationRepository { return nil }

func newMockStorage() (*mockStorage, *mockAlertRepository) {
	repo := &mockAlertRepository{}
	return &mockStorage{alertRepo: repo}, repo
}

// withURLParam injects a chi route parameter into the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func activeAlert(id string) *models.Alert {
	return &models.Alert{
		ID:        id,
		SensorID:  "sensor-1",
		Severity:  models.SeverityCritical,
		Status:    models.AlertStatusActive,
		Title:     "High Water - Gauge North",
		CreatedAt: time.Now().UTC(),
	}
}

func TestListEmpty(t *testing.T) {
	mockStore, _ := newMockStorage()
	handler := NewHandler(mockStore)

	req := httptest.NewRequest("GET", "/api/v1/alerts", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data []*models.Alert `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 0 {
		t.Errorf("alerts = %d, want 0", len(resp.Data))
	}
}

func TestListActiveFiltersByStatus(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.alerts = []*models.Alert{
		activeAlert("a-1"),
		{ID: "a-2", Status: models.AlertStatusResolved},
	}
	handler := NewHandler(mockStore)

	req := httptest.NewRequest("GET", "/api/v1/alerts/active", nil)
	rec := httptest.NewRecorder()
	handler.ListActive(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data []*models.Alert `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "a-1" {
		t.Errorf("active alerts = %+v, want only a-1", resp.Data)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	mockStore, _ := newMockStorage()
	handler := NewHandler(mockStore)

	req := withURLParam(httptest.NewRequest("GET", "/api/v1/alerts/missing", nil), "id", "missing")
	rec := httptest.NewRecorder()
	handler.GetByID(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAcknowledge(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.alerts = []*models.Alert{activeAlert("a-1")}
	handler := NewHandler(mockStore)

	body := strings.NewReader(`{"by":"operator"}`)
	req := withURLParam(httptest.NewRequest("POST", "/api/v1/alerts/a-1/acknowledge", body), "id", "a-1")
	rec := httptest.NewRecorder()
	handler.Acknowledge(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if repo.alerts[0].Status != models.AlertStatusAcknowledged {
		t.Errorf("status = %q, want acknowledged", repo.alerts[0].Status)
	}
	if repo.alerts[0].AcknowledgedBy != "operator" {
		t.Errorf("acknowledged by = %q, want operator", repo.alerts[0].AcknowledgedBy)
	}
}

func TestAcknowledgeNonActiveConflicts(t *testing.T) {
	mockStore, repo := newMockStorage()
	resolved := activeAlert("a-1")
	resolved.Status = models.AlertStatusResolved
	repo.alerts = []*models.Alert{resolved}
	handler := NewHandler(mockStore)

	body := strings.NewReader(`{"by":"operator"}`)
	req := withURLParam(httptest.NewRequest("POST", "/api/v1/alerts/a-1/acknowledge", body), "id", "a-1")
	rec := httptest.NewRecorder()
	handler.Acknowledge(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if repo.alerts[0].Status != models.AlertStatusResolved {
		t.Errorf("status changed to %q on rejected transition", repo.alerts[0].Status)
	}
}

func TestResolveFromAcknowledged(t *testing.T) {
	mockStore, repo := newMockStorage()
	acked := activeAlert("a-1")
	acked.Status = models.AlertStatusAcknowledged
	repo.alerts = []*models.Alert{acked}
	handler := NewHandler(mockStore)

	body := strings.NewReader(`{"by":"operator"}`)
	req := withURLParam(httptest.NewRequest("POST", "/api/v1/alerts/a-1/resolve", body), "id", "a-1")
	rec := httptest.NewRecorder()
	handler.Resolve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if repo.alerts[0].Status != models.AlertStatusResolved {
		t.Errorf("status = %q, want resolved", repo.alerts[0].Status)
	}
}

func TestResolveTwiceConflicts(t *testing.T) {
	mockStore, repo := newMockStorage()
	resolved := activeAlert("a-1")
	resolved.Status = models.AlertStatusResolved
	repo.alerts = []*models.Alert{resolved}
	handler := NewHandler(mockStore)

	body := strings.NewReader(`{"by":"operator"}`)
	req := withURLParam(httptest.NewRequest("POST", "/api/v1/alerts/a-1/resolve", body), "id", "a-1")
	rec := httptest.NewRecorder()
	handler.Resolve(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestSummary(t *testing.T) {
	mockStore, repo := newMockStorage()
	repo.summary = &storage.AlertSummary{
		TotalAlerts:    10,
		ActiveAlerts:   3,
		CriticalAlerts: 2,
	}
	handler := NewHandler(mockStore)

	req := httptest.NewRequest("GET", "/api/v1/alerts/summary", nil)
	rec := httptest.NewRecorder()
	handler.Summary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data *storage.AlertSummary `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.TotalAlerts != 10 || resp.Data.ActiveAlerts != 3 || resp.Data.CriticalAlerts != 2 {
		t.Errorf("summary = %+v, want {10 3 2 ...}", resp.Data)
	}
}
