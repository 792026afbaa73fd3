package v1

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Detection is the atomic unit of the system: one camera observation of a
// parking zone at one instant.
type Detection struct {
	// ID is the unique immutable identifier of the observation.
	// It MUST be a UUIDv7 (time-ordered); edge devices generate it at capture
	// time so re-uploads of the same observation are idempotent.
	ID string `json:"id"`

	// Ts is the capture timestamp in epoch milliseconds, interpreted in the
	// detection's Timezone when computing aggregation buckets.
	Ts int64 `json:"ts"`

	// CustomerID identifies the tenant that owns the camera.
	CustomerID string `json:"customerId"`

	// SiteID / ZoneID / CameraID locate the observation in the deployment
	// hierarchy. CameraID is the primary aggregation dimension.
	SiteID   string `json:"siteId"`
	ZoneID   string `json:"zoneId"`
	CameraID string `json:"cameraId"`

	// OccupiedSpaces and TotalSpaces are the counts reported by the vision
	// pipeline for this frame.
	OccupiedSpaces int `json:"occupiedSpaces"`
	TotalSpaces    int `json:"totalSpaces"`

	// Timezone is the IANA zone name of the site (e.g. "America/Montreal").
	// Edge devices omit it; ingestion stamps it from the site registry.
	Timezone string `json:"timezone,omitempty"`

	// IngestedAt is when the cloud received the detection (audit trail).
	// Set by the ingestion service, not the device.
	IngestedAt time.Time `json:"ingestedAt,omitempty"`
}

// Validate ensures the detection envelope is complete enough to store.
// Timezone is intentionally not required here: rows without one are accepted
// and skipped later by the aggregator, which reports them as anomalies.
func (d *Detection) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("id is required")
	}

	if err := ValidateDetectionID(d.ID); err != nil {
		return err
	}

	if d.Ts <= 0 {
		return fmt.Errorf("ts is required and must be positive")
	}

	if d.CameraID == "" {
		return fmt.Errorf("cameraId is required")
	}

	if d.SiteID == "" {
		return fmt.Errorf("siteId is required")
	}

	if d.ZoneID == "" {
		return fmt.Errorf("zoneId is required")
	}

	if d.OccupiedSpaces < 0 || d.TotalSpaces < 0 {
		return fmt.Errorf("occupiedSpaces and totalSpaces must not be negative")
	}

	if d.OccupiedSpaces > d.TotalSpaces {
		return fmt.Errorf("occupiedSpaces %d exceeds totalSpaces %d", d.OccupiedSpaces, d.TotalSpaces)
	}

	return nil
}

// ValidateDetectionID checks that id is a UUID of version 7.
func ValidateDetectionID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("id must be a valid UUID: %w", err)
	}
	if parsed.Version() != 7 {
		return fmt.Errorf("id must be a UUIDv7, got version %d", parsed.Version())
	}
	return nil
}

// NewDetectionID generates a fresh UUIDv7 detection id.
func NewDetectionID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate detection id: %w", err)
	}
	return id.String(), nil
}
