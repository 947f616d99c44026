package datasource

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/models"
)

// F1Source combines the Jolpica classifications with OpenF1 practice telemetry
type F1Source struct {
	*JolpicaClient
	practice *OpenF1Client
	http     *RateLimitedHTTPClient
}

var _ SessionDataSource = (*F1Source)(nil)

// Practice delegates to the OpenF1 client
func (s *F1Source) Practice(ctx context.Context, weekend *models.RaceWeekend) (*models.PracticeSession, error) {
	return s.practice.Practice(ctx, weekend)
}

// Close closes the shared HTTP client
func (s *F1Source) Close() error {
	return s.http.Close()
}

// NewFromConfig builds the session data source described by the configuration
func NewFromConfig(cfg *config.Config, baseLogger *logrus.Logger) (*F1Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	dataLogger := logger.NewDataLogger(baseLogger)

	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = cfg.DataSourceTimeout()
	httpCfg.MaxRetries = cfg.DataSource.MaxRetries
	httpCfg.RateLimit = cfg.DataSource.RateLimit
	httpClient := NewRateLimitedHTTPClient(httpCfg, dataLogger.Entry)

	sessionCache := NewSessionCache(cfg.CacheDir(), cfg.CacheTTL())

	return &F1Source{
		JolpicaClient: NewJolpicaClient(cfg.DataSource.JolpicaURL, httpClient, sessionCache, dataLogger),
		practice:      NewOpenF1Client(cfg.DataSource.OpenF1URL, httpClient, sessionCache, dataLogger),
		http:          httpClient,
	}, nil
}
