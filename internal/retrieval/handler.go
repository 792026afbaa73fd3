package retrieval

import (
	"errors"
	"net/http"
	"strings"

	httperr "github.com/oa-device/oaParkingMonitor/internal/core/errors"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the retrieval API routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/detections", s.ListDetectionsHandler)
	r.GET("/v1/bins/:granularity", s.ListBinsHandler)
}

// ListDetectionsHandler handles GET /v1/detections.
// Query parameters: id, siteId, zoneId, cameraId (comma-separated lists),
// start, end (epoch ms, both inclusive), limit, and bin (optional ad-hoc
// bucket width in ms).
func (s *Service) ListDetectionsHandler(c *gin.Context) {
	var query struct {
		ID       string `form:"id"`
		SiteID   string `form:"siteId"`
		ZoneID   string `form:"zoneId"`
		CameraID string `form:"cameraId"`
		Start    int64  `form:"start"`
		End      int64  `form:"end"`
		Limit    int    `form:"limit"`
		Bin      int64  `form:"bin"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	req := DetectionQuery{
		IDs:       splitList(query.ID),
		SiteIDs:   splitList(query.SiteID),
		ZoneIDs:   splitList(query.ZoneID),
		CameraIDs: splitList(query.CameraID),
		Start:     query.Start,
		End:       query.End,
		Limit:     query.Limit,
	}

	// The bare presence of bin selects the summarized shape, so bin=0 is an
	// error rather than silently returning raw rows.
	if c.Query("bin") != "" {
		summaries, err := s.QueryBinnedDetections(c.Request.Context(), req, query.Bin)
		if err != nil {
			writeQueryError(c, err, "Failed to query detections")
			return
		}
		c.JSON(http.StatusOK, gin.H{"bins": summaries, "count": len(summaries)})
		return
	}

	detections, err := s.QueryDetections(c.Request.Context(), req)
	if err != nil {
		writeQueryError(c, err, "Failed to query detections")
		return
	}
	c.JSON(http.StatusOK, gin.H{"detections": detections, "count": len(detections)})
}

// ListBinsHandler handles GET /v1/bins/:granularity.
// Query parameters: cameraId, siteId, zoneId (comma-separated lists),
// start, end (epoch ms, both inclusive, applied to the bin start), limit.
func (s *Service) ListBinsHandler(c *gin.Context) {
	var query struct {
		CameraID string `form:"cameraId"`
		SiteID   string `form:"siteId"`
		ZoneID   string `form:"zoneId"`
		Start    int64  `form:"start"`
		End      int64  `form:"end"`
		Limit    int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	req := BinQuery{
		CameraIDs: splitList(query.CameraID),
		SiteIDs:   splitList(query.SiteID),
		ZoneIDs:   splitList(query.ZoneID),
		Start:     query.Start,
		End:       query.End,
		Limit:     query.Limit,
	}

	bins, err := s.QueryBins(c.Request.Context(), c.Param("granularity"), req)
	if err != nil {
		writeQueryError(c, err, "Failed to query bins")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bins": bins, "count": len(bins)})
}

func writeQueryError(c *gin.Context, err error, message string) {
	if errors.Is(err, ErrInvalidQuery) {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   message,
			Details:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   message,
		Details:   err.Error(),
	})
}

// splitList turns a comma-separated query value into a slice, dropping empty
// entries. A nil result disables that filter.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return nil
	}
	return values
}
