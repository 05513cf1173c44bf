package domain

import "time"

// Pipeline stage labels attached to results.
const (
	StageCombined = "combined"
	StageIdentity = "identity"
	StageOutfit   = "outfit"
	StageVideo    = "video"
)

// Result is the normalized output of every provider adapter.
type Result struct {
	Raw          map[string]any `json:"raw_response"`
	AssetURLs    []string       `json:"asset_urls"`
	LocalFiles   []string       `json:"local_files"`
	MetadataFile string         `json:"metadata_file,omitempty"`
	LatencySec   float64        `json:"latency_sec"`
	Provider     string         `json:"provider"`
	Model        string         `json:"model"`
	Stage        string         `json:"stage,omitempty"`
	VideoModel   string         `json:"video_model,omitempty"`
}

// PrimaryAsset returns the first remote asset URL, or "" when there is none.
func (r *Result) PrimaryAsset() string {
	if r == nil || len(r.AssetURLs) == 0 {
		return ""
	}
	return r.AssetURLs[0]
}

// MetadataRecord is the audit document written next to persisted assets.
type MetadataRecord struct {
	Prompt          string         `json:"prompt"`
	Model           string         `json:"model"`
	Provider        string         `json:"provider"`
	LatencySec      float64        `json:"latency_sec"`
	Timestamp       time.Time      `json:"timestamp"`
	ReferenceImages []string       `json:"reference_images,omitempty"`
	ReferenceImage  string         `json:"reference_image,omitempty"`
	DurationSec     int            `json:"duration_sec,omitempty"`
	Resolution      string         `json:"resolution,omitempty"`
	Seed            *int64         `json:"seed,omitempty"`
	Files           []string       `json:"local_files,omitempty"`
	RawResponse     map[string]any `json:"raw_response"`
}
