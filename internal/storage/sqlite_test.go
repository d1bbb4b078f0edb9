package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andes-io/riverwatch/internal/models"
)

func setupTestDB(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "riverwatch-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}

	store := NewSQLiteStorage(filepath.Join(tmpDir, "test.db"))
	if err := store.Open(); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("open database: %v", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("migrate database: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}
	return store, cleanup
}

// seedSensor creates a river and a sensor attached to it, satisfying the
// foreign keys the reading, rule, and alert tables depend on.
func seedSensor(t *testing.T, store *SQLiteStorage, id string) *models.Sensor {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	river := &models.River{
		ID:        "river-" + id,
		Name:      "Mapocho " + id,
		Latitude:  -33.41,
		Longitude: -70.58,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.Rivers().Create(ctx, river); err != nil {
		t.Fatalf("create river: %v", err)
	}

	sensor := &models.Sensor{
		ID:                id,
		Name:              "Gauge " + id,
		SensorCode:        "GN-" + id,
		RiverID:           river.ID,
		Latitude:          -33.45,
		Longitude:         -70.66,
		Status:            models.SensorStatusActive,
		InstallationDate:  now,
		MaxLevel:          6.0,
		WarningThreshold:  70,
		CriticalThreshold: 90,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := store.Sensors().Create(ctx, sensor); err != nil {
		t.Fatalf("create sensor: %v", err)
	}
	return sensor
}

func TestSensorRoundTrip(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	seeded := seedSensor(t, store, "sensor-1")

	got, err := store.Sensors().GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetByID() = nil, want sensor")
	}
	if got.SensorCode != seeded.SensorCode {
		t.Errorf("sensor code = %q, want %q", got.SensorCode, seeded.SensorCode)
	}
	if got.RiverName != "Mapocho sensor-1" {
		t.Errorf("river name = %q, want joined river name", got.RiverName)
	}
	if got.Status != models.SensorStatusActive {
		t.Errorf("status = %q, want active", got.Status)
	}

	byCode, err := store.Sensors().GetByCode(ctx, seeded.SensorCode)
	if err != nil {
		t.Fatalf("GetByCode() error = %v", err)
	}
	if byCode == nil || byCode.ID != seeded.ID {
		t.Errorf("GetByCode() = %v, want sensor %s", byCode, seeded.ID)
	}
}

func TestSensorGetByIDMissing(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := store.Sensors().GetByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetByID() = %v, want nil for missing sensor", got)
	}
}

func TestReadingPreviousReading(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sensor := seedSensor(t, store, "sensor-1")
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	levels := map[time.Duration]float64{
		-20 * time.Minute: 2.0,
		-10 * time.Minute: 3.0,
		0:                 4.5,
	}
	i := 0
	for offset, level := range levels {
		i++
		reading := &models.SensorReading{
			ID:             fmt.Sprintf("reading-%d", i),
			SensorID:       sensor.ID,
			WaterLevel:     level,
			Temperature:    12.5,
			FlowRate:       80,
			BatteryLevel:   95,
			SignalStrength: -70,
			Timestamp:      base.Add(offset),
		}
		if err := store.Readings().Create(ctx, reading); err != nil {
			t.Fatalf("create reading: %v", err)
		}
	}

	// Strictly older than the cutoff, newest first.
	prev, err := store.Readings().PreviousReading(ctx, sensor.ID, base.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("PreviousReading() error = %v", err)
	}
	if prev == nil {
		t.Fatal("PreviousReading() = nil, want reading")
	}
	if prev.WaterLevel != 3.0 {
		t.Errorf("previous water level = %v, want 3.0", prev.WaterLevel)
	}

	// A reading at exactly the cutoff does not count as older.
	prev, err = store.Readings().PreviousReading(ctx, sensor.ID, base.Add(-20*time.Minute))
	if err != nil {
		t.Fatalf("PreviousReading() error = %v", err)
	}
	if prev != nil {
		t.Errorf("PreviousReading() = %v, want nil before oldest reading", prev)
	}

	latest, err := store.Readings().Latest(ctx, sensor.ID)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest == nil || latest.WaterLevel != 4.5 {
		t.Errorf("Latest() water level = %v, want 4.5", latest)
	}
}

func TestReadingListBySensorOrderAndLimit(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sensor := seedSensor(t, store, "sensor-1")
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		reading := &models.SensorReading{
			ID:             fmt.Sprintf("reading-%d", i),
			SensorID:       sensor.ID,
			WaterLevel:     float64(i),
			Temperature:    10,
			FlowRate:       50,
			BatteryLevel:   90,
			SignalStrength: -65,
			Timestamp:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Readings().Create(ctx, reading); err != nil {
			t.Fatalf("create reading: %v", err)
		}
	}

	readings, err := store.Readings().ListBySensor(ctx, sensor.ID, 3, 0)
	if err != nil {
		t.Fatalf("ListBySensor() error = %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("got %d readings, want 3", len(readings))
	}
	if readings[0].WaterLevel != 4 || readings[2].WaterLevel != 2 {
		t.Errorf("readings not ordered newest first: %v, %v", readings[0].WaterLevel, readings[2].WaterLevel)
	}
}

func TestRuleListForSensor(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sensorA := seedSensor(t, store, "sensor-a")
	sensorB := seedSensor(t, store, "sensor-b")
	now := time.Now().UTC()

	rules := []*models.AlertRule{
		{ID: "rule-1", Name: "B sensor-scoped", SensorID: sensorA.ID, Metric: models.MetricWaterLevel, Condition: models.ConditionGreaterThan, ThresholdValue: 3.5, Severity: models.SeverityCritical, IsActive: true},
		{ID: "rule-2", Name: "A global", SensorID: "", Metric: models.MetricTemperature, Condition: models.ConditionLessThan, ThresholdValue: 2, Severity: models.SeverityWarning, IsActive: true},
		{ID: "rule-3", Name: "C inactive", SensorID: sensorA.ID, Metric: models.MetricWaterLevel, Condition: models.ConditionGreaterThan, ThresholdValue: 5, Severity: models.SeverityCritical, IsActive: false},
		{ID: "rule-4", Name: "D other sensor", SensorID: sensorB.ID, Metric: models.MetricWaterLevel, Condition: models.ConditionGreaterThan, ThresholdValue: 4, Severity: models.SeverityWarning, IsActive: true},
	}
	for _, rule := range rules {
		rule.CreatedAt = now
		rule.UpdatedAt = now
		if err := store.Rules().Create(ctx, rule); err != nil {
			t.Fatalf("create rule %s: %v", rule.ID, err)
		}
	}

	got, err := store.Rules().ListForSensor(ctx, sensorA.ID)
	if err != nil {
		t.Fatalf("ListForSensor() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rules, want 2 (sensor-scoped + global)", len(got))
	}
	// Ordered by name: "A global" before "B sensor-scoped".
	if got[0].ID != "rule-2" || got[1].ID != "rule-1" {
		t.Errorf("rule order = %s, %s, want rule-2, rule-1", got[0].ID, got[1].ID)
	}
	if got[0].SensorID != "" {
		t.Errorf("global rule sensor id = %q, want empty", got[0].SensorID)
	}
}

func TestRuleSetActive(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sensor := seedSensor(t, store, "sensor-1")
	now := time.Now().UTC()
	rule := &models.AlertRule{
		ID: "rule-1", Name: "High Water", SensorID: sensor.ID,
		Metric: models.MetricWaterLevel, Condition: models.ConditionGreaterThan,
		ThresholdValue: 3.5, Severity: models.SeverityCritical, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := store.Rules().Create(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	if err := store.Rules().SetActive(ctx, rule.ID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	got, err := store.Rules().GetByID(ctx, rule.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.IsActive {
		t.Error("rule still active after SetActive(false)")
	}

	if err := store.Rules().SetActive(ctx, "nope", true); err == nil {
		t.Error("SetActive() on missing rule did not error")
	}
}

func seedAlert(t *testing.T, store *SQLiteStorage, id, sensorID, ruleID, title string, severity models.Severity, status models.AlertStatus, createdAt time.Time) {
	t.Helper()
	alert := &models.Alert{
		ID:        id,
		SensorID:  sensorID,
		RuleID:    ruleID,
		Severity:  severity,
		Status:    status,
		Title:     title,
		Message:   "test alert",
		CreatedAt: createdAt,
	}
	if err := store.Alerts().Create(context.Background(), alert); err != nil {
		t.Fatalf("create alert %s: %v", id, err)
	}
}

func TestAlertFindActive(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sensor := seedSensor(t, store, "sensor-1")
	now := time.Now().UTC()

	seedAlert(t, store, "alert-1", sensor.ID, "rule-1", "High Water - Gauge North", models.SeverityCritical, models.AlertStatusActive, now)
	seedAlert(t, store, "alert-2", sensor.ID, "rule-2", "Low Battery - Gauge North", models.SeverityWarning, models.AlertStatusActive, now)
	seedAlert(t, store, "alert-3", sensor.ID, "rule-1", "High Water - Gauge North", models.SeverityCritical, models.AlertStatusResolved, now.Add(-time.Hour))

	tests := []struct {
		name          string
		severity      models.Severity
		titleContains string
		wantID        string
	}{
		{"exact substring", models.SeverityCritical, "High Water", "alert-1"},
		{"case insensitive", models.SeverityCritical, "high water", "alert-1"},
		{"severity mismatch", models.SeverityWarning, "High Water", ""},
		{"resolved not matched", models.SeverityCritical, "nonexistent", ""},
		{"warning match", models.SeverityWarning, "Battery", "alert-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Alerts().FindActive(ctx, sensor.ID, tt.severity, tt.titleContains)
			if err != nil {
				t.Fatalf("FindActive() error = %v", err)
			}
			gotID := ""
			if got != nil {
				gotID = got.ID
			}
			if gotID != tt.wantID {
				t.Errorf("FindActive() = %q, want %q", gotID, tt.wantID)
			}
		})
	}
}

func TestAlertFindActiveByRule(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sensor := seedSensor(t, store, "sensor-1")
	now := time.Now().UTC()

	seedAlert(t, store, "alert-1", sensor.ID, "rule-1", "High Water - Gauge North", models.SeverityCritical, models.AlertStatusActive, now)
	seedAlert(t, store, "alert-2", sensor.ID, "rule-2", "High Water Level Critical - Gauge North", models.SeverityCritical, models.AlertStatusActive, now)

	got, err := store.Alerts().FindActiveByRule(ctx, sensor.ID, models.SeverityCritical, "rule-2")
	if err != nil {
		t.Fatalf("FindActiveByRule() error = %v", err)
	}
	if got == nil || got.ID != "alert-2" {
		t.Fatalf("FindActiveByRule() = %v, want alert-2", got)
	}

	got, err = store.Alerts().FindActiveByRule(ctx, sensor.ID, models.SeverityCritical, "rule-9")
	if err != nil {
		t.Fatalf("FindActiveByRule() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindActiveByRule() = %v, want nil for unknown rule", got)
	}
}

func TestAlertUpdateLifecycleFields(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sensor := seedSensor(t, store, "sensor-1")
	now := time.Now().UTC().Truncate(time.Second)
	seedAlert(t, store, "alert-1", sensor.ID, "rule-1", "High Water", models.SeverityCritical, models.AlertStatusActive, now)

	alert, err := store.Alerts().GetByID(ctx, "alert-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if err := alert.Acknowledge("operator", now); err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}
	if err := store.Alerts().Update(ctx, alert); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := store.Alerts().GetByID(ctx, "alert-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != models.AlertStatusAcknowledged {
		t.Errorf("status = %q, want acknowledged", got.Status)
	}
	if got.AcknowledgedBy != "operator" {
		t.Errorf("acknowledged_by = %q, want operator", got.AcknowledgedBy)
	}
	if got.AcknowledgedAt == nil {
		t.Error("acknowledged_at is nil after acknowledge")
	}
}

func TestAlertSummary(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sensor := seedSensor(t, store, "sensor-1")
	now := time.Now().UTC()

	seedAlert(t, store, "alert-1", sensor.ID, "rule-1", "High Water", models.SeverityCritical, models.AlertStatusActive, now)
	seedAlert(t, store, "alert-2", sensor.ID, "rule-2", "Low Battery", models.SeverityWarning, models.AlertStatusActive, now)
	seedAlert(t, store, "alert-3", sensor.ID, "rule-3", "Cold Water", models.SeverityInfo, models.AlertStatusAcknowledged, now.Add(-48*time.Hour))
	seedAlert(t, store, "alert-4", sensor.ID, "rule-4", "Old Flood", models.SeverityCritical, models.AlertStatusResolved, now.Add(-72*time.Hour))

	summary, err := store.Alerts().Summary(ctx, now)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.TotalAlerts != 4 {
		t.Errorf("total = %d, want 4", summary.TotalAlerts)
	}
	if summary.ActiveAlerts != 2 {
		t.Errorf("active = %d, want 2", summary.ActiveAlerts)
	}
	if summary.CriticalAlerts != 1 {
		t.Errorf("critical active = %d, want 1", summary.CriticalAlerts)
	}
	if summary.WarningAlerts != 1 {
		t.Errorf("warning active = %d, want 1", summary.WarningAlerts)
	}
	if summary.AcknowledgedAlerts != 1 {
		t.Errorf("acknowledged = %d, want 1", summary.AcknowledgedAlerts)
	}
	if summary.RecentAlerts24h != 2 {
		t.Errorf("recent 24h = %d, want 2", summary.RecentAlerts24h)
	}
}

func TestChannelConfigurationRoundTrip(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	channel := &models.NotificationChannel{
		ID:          "channel-1",
		Name:        "Ops Email",
		ChannelType: models.ChannelTypeEmail,
		Configuration: models.ChannelConfig{
			"recipients": []string{"ops@example.com", "oncall@example.com"},
		},
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Channels().Create(ctx, channel); err != nil {
		t.Fatalf("create channel: %v", err)
	}

	got, err := store.Channels().GetByID(ctx, channel.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetByID() = nil, want channel")
	}
	if got.ChannelType != models.ChannelTypeEmail {
		t.Errorf("channel type = %q, want email", got.ChannelType)
	}
	// JSON round-trip turns []string into []any; Recipients tolerates both.
	recipients := got.Configuration.Recipients()
	if len(recipients) != 2 || recipients[0] != "ops@example.com" {
		t.Errorf("recipients = %v, want 2 addresses", recipients)
	}
}

func TestChannelListActive(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now().UTC()

	channels := []*models.NotificationChannel{
		{ID: "channel-1", Name: "B Webhook", ChannelType: models.ChannelTypeWebhook, Configuration: models.ChannelConfig{"url": "https://example.com/hook"}, IsActive: true, CreatedAt: now},
		{ID: "channel-2", Name: "A Email", ChannelType: models.ChannelTypeEmail, Configuration: models.ChannelConfig{"recipients": []string{"ops@example.com"}}, IsActive: true, CreatedAt: now},
		{ID: "channel-3", Name: "C Disabled", ChannelType: models.ChannelTypeSMS, Configuration: models.ChannelConfig{"recipients": []string{"+56912345678"}}, IsActive: false, CreatedAt: now},
	}
	for _, channel := range channels {
		if err := store.Channels().Create(ctx, channel); err != nil {
			t.Fatalf("create channel %s: %v", channel.ID, err)
		}
	}

	active, err := store.Channels().ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("got %d active channels, want 2", len(active))
	}
	if active[0].ID != "channel-2" || active[1].ID != "channel-1" {
		t.Errorf("channel order = %s, %s, want name order channel-2, channel-1", active[0].ID, active[1].ID)
	}
}

func TestChannelUpdateAndDelete(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	channel := &models.NotificationChannel{
		ID:            "channel-1",
		Name:          "Ops Webhook",
		ChannelType:   models.ChannelTypeWebhook,
		Configuration: models.ChannelConfig{"url": "https://example.com/hook"},
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := store.Channels().Create(ctx, channel); err != nil {
		t.Fatalf("create channel: %v", err)
	}

	channel.Name = "Ops Webhook v2"
	channel.IsActive = false
	if err := store.Channels().Update(ctx, channel); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err := store.Channels().GetByID(ctx, channel.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Ops Webhook v2" || got.IsActive {
		t.Errorf("channel after update = %q active=%v, want renamed and inactive", got.Name, got.IsActive)
	}

	if err := store.Channels().Delete(ctx, channel.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Channels().Delete(ctx, channel.ID); err == nil {
		t.Error("second Delete() did not error")
	}
}

func TestNotificationListFilters(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now().UTC()

	rows := []*models.AlertNotification{
		{ID: "n-1", AlertID: "alert-1", ChannelID: "channel-1", Recipient: "ops@example.com", Status: models.NotificationStatusSent, SentAt: &now},
		{ID: "n-2", AlertID: "alert-1", ChannelID: "channel-2", Recipient: "https://example.com/hook", Status: models.NotificationStatusFailed, SentAt: &now, ErrorMessage: "webhook returned status 500"},
		{ID: "n-3", AlertID: "alert-2", ChannelID: "channel-1", Recipient: "ops@example.com", Status: models.NotificationStatusSent, SentAt: &now},
	}
	for _, n := range rows {
		if err := store.Notifications().Create(ctx, n); err != nil {
			t.Fatalf("create notification %s: %v", n.ID, err)
		}
	}

	tests := []struct {
		name   string
		filter NotificationFilter
		want   int
	}{
		{"no filter", NotificationFilter{}, 3},
		{"by alert", NotificationFilter{AlertID: "alert-1"}, 2},
		{"by channel", NotificationFilter{ChannelID: "channel-1"}, 2},
		{"by status", NotificationFilter{Status: models.NotificationStatusFailed}, 1},
		{"combined", NotificationFilter{AlertID: "alert-1", Status: models.NotificationStatusSent}, 1},
		{"no match", NotificationFilter{AlertID: "alert-9"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Notifications().List(ctx, tt.filter, 100, 0)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d notifications, want %d", len(got), tt.want)
			}
		})
	}

	byAlert, err := store.Notifications().ListByAlert(ctx, "alert-1")
	if err != nil {
		t.Fatalf("ListByAlert() error = %v", err)
	}
	if len(byAlert) != 2 {
		t.Errorf("ListByAlert() returned %d rows, want 2", len(byAlert))
	}
	for _, n := range byAlert {
		if n.AlertID != "alert-1" {
			t.Errorf("row %s has alert id %q, want alert-1", n.ID, n.AlertID)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if err := store.Migrate(); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	seedSensor(t, store, "sensor-1")
}
