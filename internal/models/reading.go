package models

import "time"

// Metric identifies a measured quantity on a sensor reading.
type Metric string

const (
	MetricWaterLevel   Metric = "water_level"
	MetricTemperature  Metric = "temperature"
	MetricFlowRate     Metric = "flow_rate"
	MetricBatteryLevel Metric = "battery_level"
)

// MetricUnit returns the display unit for a metric, or an empty string for
// unknown metrics.
func MetricUnit(m Metric) string {
	switch m {
	case MetricWaterLevel:
		return "m"
	case MetricTemperature:
		return "°C"
	case MetricFlowRate:
		return "m³/s"
	case MetricBatteryLevel:
		return "%"
	default:
		return ""
	}
}

// SensorReading is an immutable timestamped measurement batch from a sensor.
type SensorReading struct {
	ID             string    `json:"id"`
	SensorID       string    `json:"sensor_id"`
	WaterLevel     float64   `json:"water_level"`     // meters
	Temperature    float64   `json:"temperature"`     // Celsius
	FlowRate       float64   `json:"flow_rate"`       // m³/s
	BatteryLevel   float64   `json:"battery_level"`   // percent
	SignalStrength int       `json:"signal_strength"` // dBm
	Timestamp      time.Time `json:"timestamp"`
}

// MetricValue extracts the value of the named metric from the reading.
// The second return value is false for unknown metrics.
func (r *SensorReading) MetricValue(m Metric) (float64, bool) {
	switch m {
	case MetricWaterLevel:
		return r.WaterLevel, true
	case MetricTemperature:
		return r.Temperature, true
	case MetricFlowRate:
		return r.FlowRate, true
	case MetricBatteryLevel:
		return r.BatteryLevel, true
	default:
		return 0, false
	}
}
