package handlers

import (
	"net/http"
	"strconv"
	"time"

	"wordguess/internal/domain"
	"wordguess/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type resultEntry struct {
	*domain.GameResult
	Won bool `json:"won"`
}

// MyResults lists the archived games of the token's student.
func (h *Handler) MyResults(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	results, err := h.Results.GetByStudent(c.Request.Context(), id.StudentID, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]resultEntry, 0, len(results))
	wins := 0
	for _, r := range results {
		_, won := r.ForStudent(id.StudentID)
		if won {
			wins++
		}
		out = append(out, resultEntry{GameResult: r, Won: won})
	}

	c.JSON(http.StatusOK, gin.H{
		"studentId": id.StudentID,
		"games":     len(out),
		"wins":      wins,
		"results":   out,
	})
}

// MyStats counts the token student's games and wins over the last days
// (default 30).
func (h *Handler) MyStats(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	days := 30
	if v := c.Query("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 366 {
			days = n
		}
	}

	stats, err := h.Results.GetStudentStats(c.Request.Context(), id.StudentID, time.Now().AddDate(0, 0, -days))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// MyConfigs lists the word banks available to the token's class, shared
// ones included.
func (h *Handler) MyConfigs(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	configs, err := h.Configs.ListByClass(c.Request.Context(), id.ClassID, 100)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if configs == nil {
		configs = []*domain.WordBankConfig{}
	}
	c.JSON(http.StatusOK, gin.H{"classId": id.ClassID, "configs": configs})
}
