package datasource

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/models"
)

const openF1SourceName = "openf1"

// practicePreference lists practice sessions from most to least representative
// of race running. Sprint weekends only have the first.
var practicePreference = []string{"Practice 2", "Practice 1", "Practice 3"}

// OpenF1Client reads lap-level telemetry from the OpenF1 API
type OpenF1Client struct {
	baseURL string
	http    *RateLimitedHTTPClient
	cache   *SessionCache
	log     *logger.DataLogger
	now     func() time.Time
}

// NewOpenF1Client creates a new OpenF1 client
func NewOpenF1Client(baseURL string, httpClient *RateLimitedHTTPClient, sessionCache *SessionCache, log *logger.DataLogger) *OpenF1Client {
	return &OpenF1Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cache:   sessionCache,
		log:     log,
		now:     time.Now,
	}
}

type openF1Session struct {
	SessionKey  int       `json:"session_key"`
	SessionName string    `json:"session_name"`
	SessionType string    `json:"session_type"`
	DateStart   time.Time `json:"date_start"`
	DateEnd     time.Time `json:"date_end"`
	Year        int       `json:"year"`
}

type openF1Driver struct {
	DriverNumber int    `json:"driver_number"`
	NameAcronym  string `json:"name_acronym"`
	TeamName     string `json:"team_name"`
}

type openF1Lap struct {
	DriverNumber int      `json:"driver_number"`
	LapNumber    int      `json:"lap_number"`
	LapDuration  *float64 `json:"lap_duration"`
	IsPitOutLap  bool     `json:"is_pit_out_lap"`
	STSpeed      *float64 `json:"st_speed"`
}

type openF1Stint struct {
	DriverNumber int    `json:"driver_number"`
	StintNumber  int    `json:"stint_number"`
	LapStart     int    `json:"lap_start"`
	LapEnd       int    `json:"lap_end"`
	Compound     string `json:"compound"`
}

type openF1Weather struct {
	TrackTemperature float64 `json:"track_temperature"`
	Rainfall         float64 `json:"rainfall"`
}

// Practice returns the most representative practice session of a weekend.
func (c *OpenF1Client) Practice(ctx context.Context, weekend *models.RaceWeekend) (*models.PracticeSession, error) {
	key := CacheKey{Source: openF1SourceName, Season: weekend.Season, Round: weekend.Round, Resource: "practice"}
	var cached models.PracticeSession
	if c.cache.Get(key, &cached) {
		return &cached, nil
	}

	session, err := c.findPractice(ctx, weekend)
	if err != nil {
		return nil, err
	}

	practice, err := c.loadSession(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(practice.Laps) == 0 {
		return nil, models.DataUnavailableErrorf("%s of %s has no laps", session.SessionName, weekend.Name)
	}

	if err := c.cache.Set(key, practice, c.settled(weekend, session)); err != nil {
		c.log.WithError(err).Warn("practice data not cached")
	}
	return practice, nil
}

// settled reports whether the chosen session is final for the weekend: it has
// ended and no more representative session can still be run.
func (c *OpenF1Client) settled(weekend *models.RaceWeekend, session *openF1Session) bool {
	now := c.now()
	if session.DateEnd.IsZero() || !session.DateEnd.Before(now) {
		return false
	}
	return session.SessionName == practicePreference[0] || !now.Before(weekend.RaceStart)
}

func (c *OpenF1Client) findPractice(ctx context.Context, weekend *models.RaceWeekend) (*openF1Session, error) {
	var sessions []openF1Session
	q := url.Values{}
	q.Set("year", fmt.Sprint(weekend.Season))
	q.Set("session_type", "Practice")
	if err := c.http.GetJSON(ctx, openF1SourceName, c.baseURL+"/sessions?"+q.Encode(), &sessions); err != nil {
		return nil, fmt.Errorf("%w: practice sessions: %v", models.ErrDataUnavailable, err)
	}

	// The weekend window runs from three days before the race to its start.
	windowStart := weekend.RaceStart.Add(-72 * time.Hour)
	now := c.now()
	byName := make(map[string]*openF1Session)
	for i := range sessions {
		s := &sessions[i]
		if s.DateStart.Before(windowStart) || !s.DateStart.Before(weekend.RaceStart) || s.DateStart.After(now) {
			continue
		}
		byName[s.SessionName] = s
	}
	for _, name := range practicePreference {
		if s, ok := byName[name]; ok {
			return s, nil
		}
	}
	return nil, models.DataUnavailableErrorf("no practice session published for %s", weekend.Name)
}

func (c *OpenF1Client) loadSession(ctx context.Context, session *openF1Session) (*models.PracticeSession, error) {
	sessionQuery := fmt.Sprintf("?session_key=%d", session.SessionKey)

	var drivers []openF1Driver
	if err := c.http.GetJSON(ctx, openF1SourceName, c.baseURL+"/drivers"+sessionQuery, &drivers); err != nil {
		return nil, fmt.Errorf("%w: drivers: %v", models.ErrDataUnavailable, err)
	}
	var laps []openF1Lap
	if err := c.http.GetJSON(ctx, openF1SourceName, c.baseURL+"/laps"+sessionQuery, &laps); err != nil {
		return nil, fmt.Errorf("%w: laps: %v", models.ErrDataUnavailable, err)
	}
	var stints []openF1Stint
	if err := c.http.GetJSON(ctx, openF1SourceName, c.baseURL+"/stints"+sessionQuery, &stints); err != nil {
		return nil, fmt.Errorf("%w: stints: %v", models.ErrDataUnavailable, err)
	}

	practice := &models.PracticeSession{
		Name: session.SessionName,
		Laps: assembleLaps(drivers, laps, stints),
	}

	// Weather samples are optional.
	var weather []openF1Weather
	if err := c.http.GetJSON(ctx, openF1SourceName, c.baseURL+"/weather"+sessionQuery, &weather); err != nil {
		c.log.LogUnavailable(openF1SourceName, "weather", err)
	} else if len(weather) > 0 {
		var temp, wet float64
		for _, w := range weather {
			temp += w.TrackTemperature
			if w.Rainfall > 0 {
				wet++
			}
		}
		meanTemp := temp / float64(len(weather))
		rainFraction := wet / float64(len(weather))
		practice.TrackTemperature = &meanTemp
		practice.RainfallFraction = &rainFraction
	}
	return practice, nil
}

// assembleLaps joins laps with driver codes and stint numbers.
// The last lap of a stint followed by another stint is marked as an in-lap.
func assembleLaps(drivers []openF1Driver, laps []openF1Lap, stints []openF1Stint) []models.Lap {
	codes := make(map[int]string, len(drivers))
	for _, d := range drivers {
		codes[d.DriverNumber] = strings.ToUpper(d.NameAcronym)
	}

	byDriver := make(map[int][]openF1Stint)
	for _, s := range stints {
		byDriver[s.DriverNumber] = append(byDriver[s.DriverNumber], s)
	}
	for n := range byDriver {
		sort.Slice(byDriver[n], func(i, j int) bool { return byDriver[n][i].StintNumber < byDriver[n][j].StintNumber })
	}

	out := make([]models.Lap, 0, len(laps))
	for _, l := range laps {
		code, ok := codes[l.DriverNumber]
		if !ok {
			continue
		}
		lap := models.Lap{
			Driver:    code,
			LapNumber: l.LapNumber,
			PitOut:    l.IsPitOutLap,
		}
		if l.LapDuration != nil {
			lap.LapTime = *l.LapDuration
		}
		if l.STSpeed != nil {
			lap.SpeedTrap = *l.STSpeed
		}
		driverStints := byDriver[l.DriverNumber]
		for i, s := range driverStints {
			if l.LapNumber >= s.LapStart && l.LapNumber <= s.LapEnd {
				lap.Stint = s.StintNumber
				lap.Compound = s.Compound
				lap.PitIn = l.LapNumber == s.LapEnd && i < len(driverStints)-1
				break
			}
		}
		out = append(out, lap)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Driver != out[j].Driver {
			return out[i].Driver < out[j].Driver
		}
		return out[i].LapNumber < out[j].LapNumber
	})
	return out
}
