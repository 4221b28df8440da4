package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-scan-reminder/internal/service/job"
)

const RunIDHeader = "X-Run-ID"

// JobRunner is one reminder job. Run evaluates at the service clock, RunAt
// at a caller-supplied instant.
type JobRunner interface {
	Run(ctx context.Context) (*job.Response, error)
	RunAt(ctx context.Context, now time.Time) (*job.Response, error)
}

type JobHandler struct {
	dueDate JobRunner
	habit   JobRunner
}

func NewJobHandler(dueDate, habit JobRunner) *JobHandler {
	return &JobHandler{
		dueDate: dueDate,
		habit:   habit,
	}
}

type errorResponse struct {
	Error   string        `json:"error"`
	Summary *job.Response `json:"summary,omitempty"`
}

func (h *JobHandler) HandleDueDate(c *gin.Context) {
	h.handle(c, h.dueDate)
}

func (h *JobHandler) HandleHabit(c *gin.Context) {
	h.handle(c, h.habit)
}

func (h *JobHandler) handle(c *gin.Context, runner JobRunner) {
	runID := c.GetHeader(RunIDHeader)
	if runID == "" {
		runID = uuid.NewString()
	}
	c.Header(RunIDHeader, runID)

	ctx := job.WithRunID(c.Request.Context(), runID)

	var (
		resp *job.Response
		err  error
	)

	if fromStr := c.Query("from"); fromStr != "" {
		now, parseErr := time.Parse(time.RFC3339, fromStr)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid from time format, expected RFC3339"})
			return
		}
		slog.InfoContext(ctx, "using virtual time",
			slog.String("run_id", runID),
			slog.Time("virtual_now", now),
		)
		resp, err = runner.RunAt(ctx, now)
	} else {
		resp, err = runner.Run(ctx)
	}

	if err != nil {
		slog.ErrorContext(ctx, "job run failed",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Summary: resp})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Register mounts the job triggers under the given group.
func (h *JobHandler) Register(g *gin.RouterGroup) {
	g.POST("/jobs/due-date", h.HandleDueDate)
	g.POST("/jobs/habit", h.HandleHabit)
}
