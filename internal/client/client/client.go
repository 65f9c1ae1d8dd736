package client

import (
	"context"

	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
)

// Client is the remote gateway of the diary backend. Every method may fail;
// failures are returned as errors matching the package sentinels.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]models.Entry, error)
	Create(ctx context.Context, req models.CreateRequest) (models.Entry, error)
	Delete(ctx context.Context, id string) error
	Analyze(ctx context.Context, req models.AnalyzeRequest) (models.AnalysisResult, error)
}
