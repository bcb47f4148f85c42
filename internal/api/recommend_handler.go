package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"planrec/app"
	"planrec/domain/core"
	"planrec/domain/dataset"

	"github.com/gin-gonic/gin"
)

// recommendationResponse is the /api/v1 envelope around a recommendation
type recommendationResponse struct {
	UserID   string       `json:"user_id"`
	Strategy app.Strategy `json:"strategy"`
	Reason   string       `json:"reason"`
	Profile  *app.Profile `json:"profile,omitempty"`
	Plans    []gin.H      `json:"plans"`
}

// healthResponse describes the published snapshot
type healthResponse struct {
	Status   string         `json:"status"`
	Source   string         `json:"source"`
	LoadedAt time.Time      `json:"loaded_at"`
	Counts   map[string]int `json:"counts"`
	Warnings int            `json:"warnings"`
}

// handleRecommendPlans returns the bare plan list: every sheet column of each
// plan plus "distance" on the nearest-neighbor path.
func (s *Server) handleRecommendPlans(c *gin.Context) {
	rec, err := s.recommender.Recommend(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plansJSON(rec))
}

// handleRecommendation returns the recommendation with its strategy and profile
func (s *Server) handleRecommendation(c *gin.Context) {
	rec, err := s.recommender.Recommend(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recommendationResponse{
		UserID:   rec.UserID,
		Strategy: rec.Strategy,
		Reason:   rec.Reason,
		Profile:  rec.Profile,
		Plans:    plansJSON(rec),
	})
}

func (s *Server) handleListPlans(c *gin.Context) {
	plans := s.snapshots.Current().Plans()
	out := make([]gin.H, 0, len(plans))
	for _, p := range plans {
		out = append(out, recordJSON(p.Fields))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListUsers(c *gin.Context) {
	users := s.snapshots.Current().Users()
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, recordJSON(u.Fields))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleBillingSummary(c *gin.Context) {
	summary, err := s.billing.Summarize(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleSubscriptionLogs(c *gin.Context) {
	snap := s.snapshots.Current()
	userID := c.Param("userId")
	if _, ok := snap.User(userID); !ok {
		s.writeError(c, core.ErrUserNotFound)
		return
	}
	logs := snap.LogsOf(userID)
	out := make([]gin.H, 0, len(logs))
	for _, row := range logs {
		out = append(out, recordJSON(row))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, health(s.snapshots.Current()))
}

func health(snap *dataset.Snapshot) healthResponse {
	return healthResponse{
		Status:   "ok",
		Source:   snap.Source(),
		LoadedAt: snap.LoadedAt(),
		Counts:   snap.Counts(),
		Warnings: len(snap.Warnings()),
	}
}

// writeError maps domain errors onto the { "error": message } shape
func (s *Server) writeError(c *gin.Context, err error) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": message})
}

func errorStatus(err error) (int, string) {
	switch {
	case core.IsNotFoundError(err):
		return http.StatusNotFound, err.Error()
	case core.IsDataIntegrityError(err):
		return http.StatusInternalServerError, err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request cancelled"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func plansJSON(rec *app.Recommendation) []gin.H {
	out := make([]gin.H, 0, len(rec.Plans))
	for _, sp := range rec.Plans {
		item := recordJSON(sp.Plan.Fields)
		if rec.HasDistance() {
			item["distance"] = sp.Distance
		}
		out = append(out, item)
	}
	return out
}

func recordJSON(fields dataset.Record) gin.H {
	out := make(gin.H, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	return out
}
