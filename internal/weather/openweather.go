package weather

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/f1-predictor/internal/datasource"
	"github.com/yourusername/f1-predictor/internal/models"
)

const openWeatherSourceName = "openweathermap"

// OpenWeatherClient reads forecasts from the OpenWeatherMap 2.5 API
type OpenWeatherClient struct {
	baseURL string
	apiKey  string
	http    *datasource.RateLimitedHTTPClient
	now     func() time.Time
}

// NewOpenWeatherClient creates a new OpenWeatherMap client
func NewOpenWeatherClient(baseURL, apiKey string, httpClient *datasource.RateLimitedHTTPClient) *OpenWeatherClient {
	return &OpenWeatherClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		now:     time.Now,
	}
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type owmMain struct {
	Temp float64 `json:"temp"`
}

type owmForecast struct {
	List []struct {
		Dt      int64          `json:"dt"`
		Main    owmMain        `json:"main"`
		Weather []owmCondition `json:"weather"`
		Pop     float64        `json:"pop"`
	} `json:"list"`
}

type owmCurrent struct {
	Main    owmMain        `json:"main"`
	Weather []owmCondition `json:"weather"`
}

// Forecast returns the forecast entry closest to race start. Races that have
// started, or lie beyond the forecast horizon, use current conditions.
func (c *OpenWeatherClient) Forecast(ctx context.Context, weekend *models.RaceWeekend) (models.WeatherObservation, error) {
	if c.apiKey == "" {
		return models.WeatherObservation{}, models.DataUnavailableErrorf("OPENWEATHER_API_KEY not set")
	}

	if weekend.RaceStart.After(c.now()) {
		obs, ok, err := c.forecast(ctx, weekend)
		if err != nil {
			return models.WeatherObservation{}, err
		}
		if ok {
			return obs, nil
		}
	}
	return c.current(ctx, weekend)
}

func (c *OpenWeatherClient) forecast(ctx context.Context, weekend *models.RaceWeekend) (models.WeatherObservation, bool, error) {
	var resp owmForecast
	if err := c.http.GetJSON(ctx, openWeatherSourceName, c.endpoint("forecast", weekend), &resp); err != nil {
		return models.WeatherObservation{}, false, fmt.Errorf("%w: forecast: %v", models.ErrDataUnavailable, err)
	}
	if len(resp.List) == 0 {
		return models.WeatherObservation{}, false, nil
	}

	target := weekend.RaceStart.Unix()
	best := 0
	bestDiff := math.MaxFloat64
	for i, entry := range resp.List {
		if diff := math.Abs(float64(entry.Dt - target)); diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	entry := resp.List[best]
	obs := models.WeatherObservation{
		RainProbability: clamp01(entry.Pop),
		Temperature:     entry.Main.Temp,
		Source:          models.WeatherLive,
	}
	if len(entry.Weather) > 0 {
		obs.Description = entry.Weather[0].Description
	}
	return obs, true, nil
}

func (c *OpenWeatherClient) current(ctx context.Context, weekend *models.RaceWeekend) (models.WeatherObservation, error) {
	var resp owmCurrent
	if err := c.http.GetJSON(ctx, openWeatherSourceName, c.endpoint("weather", weekend), &resp); err != nil {
		return models.WeatherObservation{}, fmt.Errorf("%w: current weather: %v", models.ErrDataUnavailable, err)
	}

	obs := models.WeatherObservation{Temperature: resp.Main.Temp, Source: models.WeatherLive}
	if len(resp.Weather) > 0 {
		// Current conditions carry no probability, only whether it is raining.
		if strings.Contains(strings.ToLower(resp.Weather[0].Main), "rain") {
			obs.RainProbability = 1.0
		}
		obs.Description = resp.Weather[0].Description
	}
	return obs, nil
}

func (c *OpenWeatherClient) endpoint(resource string, weekend *models.RaceWeekend) string {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", weekend.Latitude))
	q.Set("lon", fmt.Sprintf("%.4f", weekend.Longitude))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	return c.baseURL + "/" + resource + "?" + q.Encode()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
