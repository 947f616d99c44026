package models

// WeatherSource records where a run's weather came from.
type WeatherSource string

const (
	WeatherLive     WeatherSource = "live"
	WeatherOverride WeatherSource = "override"
	WeatherDefault  WeatherSource = "default"
	// WeatherPractice is rainfall measured during practice, used for past weekends.
	WeatherPractice WeatherSource = "practice"
)

// WeatherObservation is the forecast used for one prediction run.
type WeatherObservation struct {
	RainProbability float64       `json:"rain_probability" validate:"gte=0,lte=1"`
	Temperature     float64       `json:"temperature"`
	Description     string        `json:"description"`
	Source          WeatherSource `json:"source"`
}
