// Package weather resolves the forecast used by a prediction run.
package weather

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/metrics"
	"github.com/yourusername/f1-predictor/internal/models"
)

// Provider fetches a forecast for the race of a weekend.
type Provider interface {
	Forecast(ctx context.Context, weekend *models.RaceWeekend) (models.WeatherObservation, error)
}

// ParseOverride reads a user-supplied weather value: "dry", "wet" or a
// rain probability in [0,1].
func ParseOverride(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dry":
		return 0.0, nil
	case "wet":
		return 1.0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, models.ConfigurationErrorf("weather %q must be dry, wet or a probability", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, models.ConfigurationErrorf("weather %q must be dry, wet or a probability", s)
	}
	if v < 0 || v > 1 {
		return 0, models.ConfigurationErrorf("weather %v must be between 0 and 1", v)
	}
	return v, nil
}

// DefaultObservation is the forecast used when no live data is available.
func DefaultObservation(defaults config.DefaultsConfig) models.WeatherObservation {
	return models.WeatherObservation{
		RainProbability: defaults.RainProbability,
		Temperature:     defaults.TrackTemp,
		Description:     "unknown",
		Source:          models.WeatherDefault,
	}
}

// Resolver picks the forecast for a run: override, live forecast, or default.
type Resolver struct {
	provider Provider
	fallback models.WeatherObservation
	timeout  time.Duration
	log      *logger.PredictionLogger
}

// NewResolver creates a resolver. A nil provider always yields the default forecast.
func NewResolver(provider Provider, defaults config.DefaultsConfig, timeout time.Duration, log *logger.PredictionLogger) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{
		provider: provider,
		fallback: DefaultObservation(defaults),
		timeout:  timeout,
		log:      log,
	}
}

// Resolve returns the observation for a weekend. An override wins and no
// live request is made. Live failures and timeouts degrade to the default.
func (r *Resolver) Resolve(ctx context.Context, weekend *models.RaceWeekend, override *float64) models.WeatherObservation {
	obs := r.resolve(ctx, weekend, override)
	metrics.RecordWeather(string(obs.Source))
	r.log.LogWeather(string(obs.Source), obs.RainProbability, obs.Temperature)
	return obs
}

func (r *Resolver) resolve(ctx context.Context, weekend *models.RaceWeekend, override *float64) models.WeatherObservation {
	if override != nil {
		obs := r.fallback
		obs.RainProbability = *override
		obs.Description = "override"
		obs.Source = models.WeatherOverride
		return obs
	}
	if r.provider == nil {
		r.log.LogWeatherFallback("no forecast provider configured")
		return r.fallback
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	obs, err := r.provider.Forecast(ctx, weekend)
	if err != nil {
		r.log.LogWeatherFallback(err.Error())
		return r.fallback
	}
	obs.Source = models.WeatherLive
	return obs
}
