package domain

// LatencyStat aggregates generation latency for one provider and model.
type LatencyStat struct {
	Provider string  `json:"provider"`
	Model    string  `json:"model"`
	Count    int64   `json:"count"`
	AvgSec   float64 `json:"avg_latency_sec"`
	MinSec   float64 `json:"min_latency_sec"`
	MaxSec   float64 `json:"max_latency_sec"`
}
