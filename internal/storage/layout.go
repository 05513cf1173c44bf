package storage

import (
	"fmt"
	"path"
	"strings"
	"sync"
	"time"
)

// Family is the top-level output partition.
type Family string

const (
	FamilyImages Family = "images"
	FamilyVideos Family = "videos"
)

const (
	datePartition  = "2006_01_02"
	metadataPrefix = "meta_"
	metadataSuffix = ".json"
)

// Stamper hands out strictly increasing millisecond stamps. Two generations
// finishing in the same millisecond still get distinct file names.
type Stamper struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewStamper returns a stamper reading the wall clock.
func NewStamper() *Stamper {
	return &Stamper{now: time.Now}
}

// Next returns a stamp greater than every stamp returned before.
func (s *Stamper) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	stamp := now().UnixMilli()
	if stamp <= s.last {
		stamp = s.last + 1
	}
	s.last = stamp
	return stamp
}

// Partition is the directory of one generation: family, UTC date and
// provider directory.
type Partition struct {
	Family   Family
	Date     time.Time
	Provider string
}

// Dir returns the partition directory key, e.g. images/2026_10_17/nano_banana_edit.
func (p Partition) Dir() string {
	return path.Join(string(p.Family), p.Date.UTC().Format(datePartition), p.Provider)
}

// AssetKey names the idx-th asset of a generation stamped stamp.
func (p Partition) AssetKey(stamp int64, idx int, ext string) string {
	if ext == "" {
		ext = ".bin"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	var name string
	switch p.Family {
	case FamilyVideos:
		if idx == 0 {
			name = fmt.Sprintf("video_%d%s", stamp, ext)
		} else {
			name = fmt.Sprintf("video_%d_%d%s", stamp, idx, ext)
		}
	default:
		name = fmt.Sprintf("img_%d_%d%s", stamp, idx, ext)
	}
	return path.Join(p.Dir(), name)
}

// MetadataKey names the metadata document of a generation stamped stamp.
func (p Partition) MetadataKey(stamp int64) string {
	return path.Join(p.Dir(), fmt.Sprintf("%s%d%s", metadataPrefix, stamp, metadataSuffix))
}

// IsMetadataName reports whether a base file name is a metadata document.
func IsMetadataName(name string) bool {
	return strings.HasPrefix(name, metadataPrefix) && strings.HasSuffix(name, metadataSuffix)
}

// ProviderOfKey returns the provider directory component of an asset or
// metadata key laid out by Partition, or "" when key has another shape.
func ProviderOfKey(key string) string {
	parts := strings.Split(path.Clean(key), "/")
	if len(parts) < 4 {
		return ""
	}
	return parts[len(parts)-2]
}
