package ingestion

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	httperr "github.com/oa-device/oaParkingMonitor/internal/core/errors"
	"github.com/oa-device/oaParkingMonitor/internal/core/storage"

	v1 "github.com/oa-device/oaParkingMonitor/internal/api/v1"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed     = "Failed to read request body"
	msgInvalidJSON        = "Invalid JSON body"
	msgEmptyBatch         = "Batch must contain at least one detection"
	msgPersistFailed      = "Failed to persist detection"
	msgDuplicateDetection = "Detection already exists"
	msgCustomerMismatch   = "Detection customerId does not match the x-customer-id header"
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// IngestHandler handles HTTP POST requests for detection ingestion.
// The body is either one detection object or an array of them, and the two
// shapes treat a replayed id differently: a single object with a known id is
// rejected with 409, while an array skips replayed rows and reports them in
// the response's duplicates count, returning 201 for what it created.
func (s *Service) IngestHandler(c *gin.Context) {
	detections, isBatch, payloadSize, err := s.parseBody(c)
	if err != nil {
		writeError(c, err)
		return
	}

	customerID := c.GetString(CustomerIDKey)
	for _, d := range detections {
		if err := s.prepareDetection(d, customerID); err != nil {
			writeError(c, err)
			return
		}
	}

	slog.Info("Received detections",
		"count", len(detections),
		"customer_id", customerID,
		"batch", isBatch,
		"payload_size", payloadSize)

	if isBatch {
		s.persistBatch(c, detections)
		return
	}
	s.persistSingle(c, detections[0])
}

// parseBody reads the raw request body and binds it into one or many
// detections; the first non-whitespace byte decides which shape the uploader
// sent. Returns the detections, whether the body was an array, and the raw
// payload size (used for structured logging upstream).
func (s *Service) parseBody(c *gin.Context) ([]*v1.Detection, bool, int, *ingestionError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, false, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	// Check if body exceeds maximum size
	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, false, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	trimmed := bytes.TrimLeft(bodyBytes, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var detections []*v1.Detection
		if err := c.ShouldBindJSON(&detections); err != nil {
			slog.Warn("Invalid JSON batch received", "error", err, "payload_size", len(bodyBytes))
			return nil, true, len(bodyBytes), &ingestionError{
				statusCode: http.StatusBadRequest,
				errorType:  httperr.HttpInvalidJsonError,
				message:    msgInvalidJSON,
			}
		}
		if len(detections) == 0 {
			return nil, true, len(bodyBytes), &ingestionError{
				statusCode: http.StatusBadRequest,
				errorType:  httperr.HttpValidationError,
				message:    msgEmptyBatch,
			}
		}
		for _, d := range detections {
			if d == nil {
				return nil, true, len(bodyBytes), &ingestionError{
					statusCode: http.StatusBadRequest,
					errorType:  httperr.HttpInvalidJsonError,
					message:    msgInvalidJSON,
				}
			}
		}
		return detections, true, len(bodyBytes), nil
	}

	var detection v1.Detection
	if err := c.ShouldBindJSON(&detection); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, false, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}
	return []*v1.Detection{&detection}, false, len(bodyBytes), nil
}

// prepareDetection stamps server-side fields and validates the envelope.
// The customer id comes from the authenticated header, a missing id is
// generated as a UUIDv7, a missing ts defaults to the server clock, and the
// timezone is resolved from the site registry so the aggregator can bucket
// in site-local time.
func (s *Service) prepareDetection(d *v1.Detection, customerID string) *ingestionError {
	if d.CustomerID == "" {
		d.CustomerID = customerID
	} else if d.CustomerID != customerID {
		slog.Warn("Detection customerId mismatch",
			"detection_customer", d.CustomerID,
			"header_customer", customerID)
		return &ingestionError{
			statusCode: http.StatusForbidden,
			errorType:  httperr.HttpForbiddenError,
			message:    msgCustomerMismatch,
		}
	}

	if d.ID == "" {
		id, err := v1.NewDetectionID()
		if err != nil {
			slog.Error("Failed to generate detection id", "error", err)
			return &ingestionError{
				statusCode: http.StatusInternalServerError,
				errorType:  httperr.HttpInternalError,
				message:    "Failed to generate detection id",
			}
		}
		d.ID = id
	}

	if d.Ts == 0 {
		d.Ts = time.Now().UnixMilli()
	}

	if d.Timezone == "" {
		d.Timezone = s.registry.TimezoneFor(d.SiteID)
	}

	// set IngestedAt to be the time we receive the request
	d.IngestedAt = time.Now().UTC()

	if err := d.Validate(); err != nil {
		slog.Warn("Envelope validation failed", "error", err, "detection_id", d.ID)
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    err.Error(),
		}
	}

	return nil
}

// persistSingle saves one detection; a duplicate id is a client error here
// because the uploader sent exactly one record.
func (s *Service) persistSingle(c *gin.Context, d *v1.Detection) {
	if err := s.store.SaveDetection(c.Request.Context(), d); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("Duplicate detection rejected", "detection_id", d.ID, "camera_id", d.CameraID)
			writeError(c, &ingestionError{
				statusCode: http.StatusConflict,
				errorType:  httperr.HttpDuplicateDetectionError,
				message:    msgDuplicateDetection,
			})
			return
		}

		slog.Error("Failed to persist detection", "error", err, "detection_id", d.ID)
		writeError(c, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		})
		return
	}

	c.JSON(http.StatusCreated, d)
}

// persistBatch saves a batch, tolerating duplicates: devices re-upload on
// poor connectivity, so replayed rows are skipped rather than failing the
// whole batch.
func (s *Service) persistBatch(c *gin.Context, detections []*v1.Detection) {
	inserted, err := s.store.SaveBatch(c.Request.Context(), detections)
	if err != nil {
		slog.Error("Failed to persist detection batch", "error", err, "count", len(detections))
		writeError(c, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		})
		return
	}

	duplicates := len(detections) - inserted
	if duplicates > 0 {
		slog.Info("Batch contained duplicate detections", "created", inserted, "duplicates", duplicates)
	}

	c.JSON(http.StatusCreated, gin.H{
		"created":    inserted,
		"duplicates": duplicates,
	})
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
