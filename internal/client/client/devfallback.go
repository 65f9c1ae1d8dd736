package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
	"github.com/dmitrijs2005/kidsdiary/internal/logging"
)

const devDefaultTitle = "新日记"

// DevFallback wraps a Client and replaces failures with canned answers.
// It is meant for development without a running backend.
type DevFallback struct {
	next Client
	now  func() time.Time
	log  logging.Logger
}

func NewDevFallback(next Client, log logging.Logger) *DevFallback {
	if log == nil {
		log = logging.NewNop()
	}
	return &DevFallback{next: next, now: time.Now, log: log.With("component", "gateway", "mode", "dev")}
}

func (d *DevFallback) Close() error { return d.next.Close() }

func (d *DevFallback) Ping(ctx context.Context) error {
	if err := d.next.Ping(ctx); err != nil {
		d.log.Debug(ctx, "health check failed, reporting ok", "error", err)
	}
	return nil
}

func (d *DevFallback) List(ctx context.Context) ([]models.Entry, error) {
	entries, err := d.next.List(ctx)
	if err != nil {
		d.log.Debug(ctx, "list failed, returning empty list", "error", err)
		return []models.Entry{}, nil
	}
	return entries, nil
}

func (d *DevFallback) Create(ctx context.Context, req models.CreateRequest) (models.Entry, error) {
	e, err := d.next.Create(ctx, req)
	if err == nil {
		return e, nil
	}
	d.log.Debug(ctx, "create failed, fabricating entry", "error", err)

	now := d.now()
	title := req.Title
	if title == "" {
		title = devDefaultTitle
	}
	e = models.Entry{
		ID:         fmt.Sprintf("diary_%d", now.UnixMilli()),
		Timestamp:  models.Timestamp(now),
		Title:      title,
		Content:    req.Content,
		Mood:       req.Mood,
		Weather:    req.Weather,
		ImageRef:   req.ImageRef,
		Scene:      req.Scene,
		Suggestion: req.Suggestion,
		CreatedAt:  now.UTC().Format(time.RFC3339),
		Status:     models.StatusSaved,
	}
	e.Normalize()
	return e, nil
}

func (d *DevFallback) Delete(ctx context.Context, id string) error {
	if err := d.next.Delete(ctx, id); err != nil {
		d.log.Debug(ctx, "delete failed, reporting success", "id", id, "error", err)
	}
	return nil
}

func (d *DevFallback) Analyze(ctx context.Context, req models.AnalyzeRequest) (models.AnalysisResult, error) {
	res, err := d.next.Analyze(ctx, req)
	if err == nil {
		return res, nil
	}
	d.log.Debug(ctx, "analyze failed, returning sample result", "error", err)
	return SampleAnalysis(d.now()), nil
}

// SampleAnalysis is the canned analysis result used in development.
func SampleAnalysis(now time.Time) models.AnalysisResult {
	return models.AnalysisResult{
		ChildState: models.ChildActive,
		Mood:       models.MoodHappy,
		Weather:    models.WeatherSunny,
		Tags:       []string{"户外活动", "阳光明媚", "孩子开心"},
		Suggestions: []models.Suggestion{
			{
				ID:       fmt.Sprintf("suggestion_%d", now.UnixMilli()),
				Category: models.CategoryHealth,
				Items: []models.SuggestionItem{
					{Name: "多喝水", Qty: models.Ptr(2.0), Unit: "杯"},
					{Name: "防晒霜", Qty: models.Ptr(1.0), Unit: "次"},
				},
				Reasoning: "在阳光下活动需要注意补水和防晒",
				Source:    "analysis",
			},
		},
	}
}
