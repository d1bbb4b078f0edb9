// Package models defines domain models for RiverWatch.
package models

import "time"

// SensorStatus represents the operational status of a sensor.
type SensorStatus string

const (
	SensorStatusActive      SensorStatus = "active"
	SensorStatusInactive    SensorStatus = "inactive"
	SensorStatusMaintenance SensorStatus = "maintenance"
	SensorStatusError       SensorStatus = "error"
)

// River represents a monitored river.
type River struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Sensor represents a water level sensor installed on a river.
type Sensor struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	SensorCode        string       `json:"sensor_code"`
	RiverID           string       `json:"river_id"`
	RiverName         string       `json:"river_name,omitempty"`
	Latitude          float64      `json:"latitude"`
	Longitude         float64      `json:"longitude"`
	Status            SensorStatus `json:"status"`
	InstallationDate  time.Time    `json:"installation_date"`
	LastMaintenance   *time.Time   `json:"last_maintenance,omitempty"`
	MaxLevel          float64      `json:"max_level"`           // meters
	WarningThreshold  float64      `json:"warning_threshold"`   // percent of max level
	CriticalThreshold float64      `json:"critical_threshold"`  // percent of max level
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// LevelPercentage returns a water level as a percentage of the sensor's
// maximum level, capped at 100.
func (s *Sensor) LevelPercentage(waterLevel float64) float64 {
	if s.MaxLevel <= 0 {
		return 0
	}
	pct := (waterLevel / s.MaxLevel) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// ThresholdStatus classifies a water level against the sensor's thresholds.
// Returns "critical", "warning", or "normal".
func (s *Sensor) ThresholdStatus(waterLevel float64) string {
	pct := s.LevelPercentage(waterLevel)
	switch {
	case pct >= s.CriticalThreshold:
		return "critical"
	case pct >= s.WarningThreshold:
		return "warning"
	default:
		return "normal"
	}
}
