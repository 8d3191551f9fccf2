package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/session"
)

type handlers struct {
	cfg  config.App
	deps Deps
}

// issueToken exchanges a known employee id for a staff access token.
func (h *handlers) issueToken(c *gin.Context) {
	var req struct {
		EmployeeID string `json:"employee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	staff, err := h.deps.Staff.FindStaff(c.Request.Context(), req.EmployeeID)
	if err != nil {
		log.Printf("staff lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if staff == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown staff member"})
		return
	}

	token, exp, err := auth.Issue(staff.EmployeeID, staff.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"access_token": token,
		"expires_at":   exp.Unix(),
	})
}

// takeAttendance records one attendance session.
func (h *handlers) takeAttendance(c *gin.Context) {
	var sub session.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []session.FieldError{{Msg: "request body must be valid JSON"}}})
		return
	}

	res, err := h.deps.Sessions.Take(c.Request.Context(), sub)
	if err != nil {
		var verr *session.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
			return
		}
		var conflict *session.ConflictError
		if errors.As(err, &conflict) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []session.FieldError{{Msg: conflict.Error()}}})
			return
		}
		if errors.Is(err, session.ErrTeacherNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []session.FieldError{{Msg: "invalid teacher"}}})
			return
		}
		log.Printf("attendance submission failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, res)
}

// sessionRecords returns the rows recorded under one session id.
func (h *handlers) sessionRecords(c *gin.Context) {
	records, err := h.deps.Sessions.Records(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("session lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// listRecords returns attendance rows matching the query filters.
func (h *handlers) listRecords(c *gin.Context) {
	f := session.Filter{
		BatchID:   c.Query("batch"),
		SubjectID: c.Query("subject"),
		StudentID: c.Query("student"),
		Limit:     50,
	}
	if v := c.Query("date"); v != "" {
		day, err := time.ParseInLocation(time.DateOnly, v, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		f.Day = &day
	}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			f.Limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			f.Offset = parsed
		}
	}

	records, err := h.deps.Sessions.ListRecords(c.Request.Context(), f)
	if err != nil {
		log.Printf("record listing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if records == nil {
		records = []session.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// getStreak returns the absence streak row for a student.
func (h *handlers) getStreak(c *gin.Context) {
	s, err := h.deps.Streaks.Get(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		log.Printf("streak lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no streak recorded"})
		return
	}
	c.JSON(http.StatusOK, s)
}
