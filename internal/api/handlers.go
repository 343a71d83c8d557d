package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fibrotrack-server/internal/domain"
)

// userID extracts the caller identity from the X-User-ID header.
func userID(c *gin.Context) (int64, bool) {
	raw := c.GetHeader("X-User-ID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(c, domain.NewValidationError("X-User-ID", "must be a positive integer header", raw))
		return 0, false
	}
	return id, true
}

// respondError maps domain errors onto the standard error envelope.
func respondError(c *gin.Context, err error) {
	requestID := c.GetString("correlation_id")

	var validationErr *domain.ValidationError
	var conflictErr *domain.ConflictError
	var insufficientErr *domain.InsufficientDataError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeValidation, validationErr.Error(), "", requestID))
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, domain.NewAPIError(
			domain.ErrCodeConflict, conflictErr.Error(), "", requestID))
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInsufficientData, insufficientErr.Error(), "", requestID))
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrCodeNotFound, "resource not found", "", requestID))
	default:
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrCodeInternal, "internal server error", "", requestID))
	}
}

// bindPayload decodes an arbitrary JSON object body.
func bindPayload(c *gin.Context) (map[string]interface{}, bool) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, domain.NewValidationError("body", "must be a JSON object", nil))
		return nil, false
	}
	return payload, true
}

// handleCreateDailyEntry records one daily self-report.
func (s *Server) handleCreateDailyEntry(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	payload, ok := bindPayload(c)
	if !ok {
		return
	}

	entry, err := s.entries.Create(c.Request.Context(), id, payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// handleGetDailyEntry returns the entry for the date query parameter.
func (s *Server) handleGetDailyEntry(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" {
		respondError(c, domain.NewValidationError("date", "missing query parameter", nil))
		return
	}

	entry, err := s.entries.GetByDate(c.Request.Context(), id, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// handleListDailyEntries returns the full entry history.
func (s *Server) handleListDailyEntries(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	entries, err := s.entries.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// handleSubmitScreening scores and stores one screening submission.
func (s *Server) handleSubmitScreening(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	payload, ok := bindPayload(c)
	if !ok {
		return
	}

	input, err := s.screening.Normalize(payload)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := s.screening.Submit(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// handleLatestScreening returns the most recent screening record.
func (s *Server) handleLatestScreening(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	record, err := s.screening.Latest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// handleWeeklySummary computes the rollup for the week containing the
// date query parameter (default: today).
func (s *Server) handleWeeklySummary(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	date := time.Now()
	raw := c.Query("date")
	if raw == "" {
		raw = c.Query("week_start")
	}
	if raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(c, domain.NewValidationError("date", "must be formatted YYYY-MM-DD", raw))
			return
		}
		date = parsed
	}

	summary, err := s.rollup.ComputeWeekly(c.Request.Context(), id, date)
	if err != nil {
		// A week without entries is a soft condition, not a failure.
		var insufficient *domain.InsufficientDataError
		if errors.As(err, &insufficient) {
			c.JSON(http.StatusOK, gin.H{"message": "no data recorded for this week"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// handleListWeeklySummaries returns the stored weekly history.
func (s *Server) handleListWeeklySummaries(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	summaries, err := s.rollup.ListWeekly(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": summaries, "count": len(summaries)})
}

// handleFinalReport computes and returns the multi-week final report.
func (s *Server) handleFinalReport(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	report, err := s.rollup.ComputeFinal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleGetProfile returns the stored user profile.
func (s *Server) handleGetProfile(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	profile, err := s.profiles.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// handleUpdateProfile merges submitted demographic fields into the profile.
func (s *Server) handleUpdateProfile(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	payload, ok := bindPayload(c)
	if !ok {
		return
	}

	profile, err := s.profiles.Update(c.Request.Context(), id, payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// handleMonthlyEntry records one monthly assessment submission.
func (s *Server) handleMonthlyEntry(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	payload, ok := bindPayload(c)
	if !ok {
		return
	}

	result, err := s.monthly.Submit(c.Request.Context(), id, payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
