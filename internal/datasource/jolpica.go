package datasource

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/models"
	"github.com/yourusername/f1-predictor/internal/track"
)

const jolpicaSourceName = "jolpica"

// JolpicaClient reads the Ergast-compatible Jolpica API
type JolpicaClient struct {
	baseURL string
	http    *RateLimitedHTTPClient
	cache   *SessionCache
	log     *logger.DataLogger
}

// NewJolpicaClient creates a new Jolpica client
func NewJolpicaClient(baseURL string, httpClient *RateLimitedHTTPClient, sessionCache *SessionCache, log *logger.DataLogger) *JolpicaClient {
	return &JolpicaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cache:   sessionCache,
		log:     log,
	}
}

type ergastResponse struct {
	MRData struct {
		Total     string `json:"total"`
		RaceTable struct {
			Races []ergastRace `json:"Races"`
		} `json:"RaceTable"`
	} `json:"MRData"`
}

type ergastSession struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type ergastRace struct {
	Season   string `json:"season"`
	Round    string `json:"round"`
	RaceName string `json:"raceName"`
	Circuit  struct {
		CircuitID   string `json:"circuitId"`
		CircuitName string `json:"circuitName"`
		Location    struct {
			Lat      string `json:"lat"`
			Long     string `json:"long"`
			Locality string `json:"locality"`
			Country  string `json:"country"`
		} `json:"Location"`
	} `json:"Circuit"`
	Date             string         `json:"date"`
	Time             string         `json:"time"`
	FirstPractice    *ergastSession `json:"FirstPractice"`
	SecondPractice   *ergastSession `json:"SecondPractice"`
	ThirdPractice    *ergastSession `json:"ThirdPractice"`
	Qualifying       *ergastSession `json:"Qualifying"`
	Sprint           *ergastSession `json:"Sprint"`
	SprintQualifying *ergastSession `json:"SprintQualifying"`
	SprintShootout   *ergastSession `json:"SprintShootout"`

	Results           []ergastResult     `json:"Results"`
	SprintResults     []ergastResult     `json:"SprintResults"`
	QualifyingResults []ergastQualifying `json:"QualifyingResults"`
}

type ergastDriver struct {
	DriverID        string `json:"driverId"`
	PermanentNumber string `json:"permanentNumber"`
	Code            string `json:"code"`
	GivenName       string `json:"givenName"`
	FamilyName      string `json:"familyName"`
}

type ergastConstructor struct {
	ConstructorID string `json:"constructorId"`
	Name          string `json:"name"`
}

type ergastResult struct {
	Number      string            `json:"number"`
	Position    string            `json:"position"`
	Points      string            `json:"points"`
	Driver      ergastDriver      `json:"Driver"`
	Constructor ergastConstructor `json:"Constructor"`
	Grid        string            `json:"grid"`
	Status      string            `json:"status"`
}

type ergastQualifying struct {
	Number      string            `json:"number"`
	Position    string            `json:"position"`
	Driver      ergastDriver      `json:"Driver"`
	Constructor ergastConstructor `json:"Constructor"`
	Q1          string            `json:"Q1"`
	Q2          string            `json:"Q2"`
	Q3          string            `json:"Q3"`
}

// Calendar returns every weekend of a season ordered by round
func (c *JolpicaClient) Calendar(ctx context.Context, season int) ([]models.RaceWeekend, error) {
	key := CacheKey{Source: jolpicaSourceName, Season: season, Resource: "calendar"}
	var races []ergastRace
	if !c.cache.Get(key, &races) {
		var resp ergastResponse
		if err := c.fetch(ctx, key, fmt.Sprintf("%s/%d.json?limit=100", c.baseURL, season), &resp); err != nil {
			return nil, err
		}
		races = resp.MRData.RaceTable.Races
		if err := c.cache.Set(key, races, false); err != nil {
			c.log.WithError(err).Debug("calendar not cached")
		}
	}

	weekends := make([]models.RaceWeekend, 0, len(races))
	for _, r := range races {
		w, err := toWeekend(r)
		if err != nil {
			return nil, NewDataSourceError(jolpicaSourceName, ErrCodeInvalidData, "calendar entry "+r.RaceName, err)
		}
		weekends = append(weekends, w)
	}
	return weekends, nil
}

// Qualifying returns the qualifying classification of a round
func (c *JolpicaClient) Qualifying(ctx context.Context, season, round int) ([]models.QualifyingResult, error) {
	race, err := c.round(ctx, season, round, "qualifying")
	if err != nil || race == nil {
		return nil, err
	}

	out := make([]models.QualifyingResult, 0, len(race.QualifyingResults))
	for _, q := range race.QualifyingResults {
		out = append(out, models.QualifyingResult{
			Driver:        driverCode(q.Driver),
			ConstructorID: q.Constructor.ConstructorID,
			Position:      atoi(q.Position),
			BestLap:       bestLap(q.Q1, q.Q2, q.Q3),
		})
	}
	return out, nil
}

// Sprint returns the sprint classification of a round
func (c *JolpicaClient) Sprint(ctx context.Context, season, round int) ([]models.RaceResult, error) {
	race, err := c.round(ctx, season, round, "sprint")
	if err != nil || race == nil {
		return nil, err
	}
	return toResults(season, round, race.SprintResults), nil
}

// Race returns the race classification of a round
func (c *JolpicaClient) Race(ctx context.Context, season, round int) ([]models.RaceResult, error) {
	race, err := c.round(ctx, season, round, "results")
	if err != nil || race == nil {
		return nil, err
	}
	return toResults(season, round, race.Results), nil
}

// SeasonResults returns race classifications of every round before the given one
func (c *JolpicaClient) SeasonResults(ctx context.Context, season, beforeRound int) ([]models.RaceResult, error) {
	var out []models.RaceResult
	for round := 1; round < beforeRound; round++ {
		results, err := c.Race(ctx, season, round)
		if err != nil {
			return nil, err
		}
		out = append(out, results...)
	}
	return out, nil
}

// round fetches one classification resource; nil means the session has not run.
func (c *JolpicaClient) round(ctx context.Context, season, round int, resource string) (*ergastRace, error) {
	key := CacheKey{Source: jolpicaSourceName, Season: season, Round: round, Resource: resource}
	var cached ergastRace
	if c.cache.Get(key, &cached) {
		return &cached, nil
	}

	var resp ergastResponse
	url := fmt.Sprintf("%s/%d/%d/%s.json?limit=100", c.baseURL, season, round, resource)
	if err := c.fetch(ctx, key, url, &resp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	races := resp.MRData.RaceTable.Races
	if len(races) == 0 {
		return nil, nil
	}

	// Published classifications are final, so they are kept on disk.
	if err := c.cache.Set(key, races[0], true); err != nil {
		c.log.WithError(err).Warn("session data not cached")
	}
	return &races[0], nil
}

func (c *JolpicaClient) fetch(ctx context.Context, key CacheKey, url string, v interface{}) error {
	start := time.Now()
	if err := c.http.GetJSON(ctx, jolpicaSourceName, url, v); err != nil {
		return err
	}
	c.log.LogFetch(jolpicaSourceName, key.String(), false, float64(time.Since(start).Milliseconds()))
	return nil
}

func toWeekend(r ergastRace) (models.RaceWeekend, error) {
	season, err := strconv.Atoi(r.Season)
	if err != nil {
		return models.RaceWeekend{}, fmt.Errorf("season %q: %w", r.Season, err)
	}
	round, err := strconv.Atoi(r.Round)
	if err != nil {
		return models.RaceWeekend{}, fmt.Errorf("round %q: %w", r.Round, err)
	}
	raceStart, err := parseSessionTime(r.Date, r.Time)
	if err != nil {
		return models.RaceWeekend{}, err
	}

	w := models.RaceWeekend{
		Season:      season,
		Round:       round,
		Name:        r.RaceName,
		CircuitID:   r.Circuit.CircuitID,
		CircuitName: r.Circuit.CircuitName,
		Locality:    r.Circuit.Location.Locality,
		Country:     r.Circuit.Location.Country,
		Latitude:    atof(r.Circuit.Location.Lat),
		Longitude:   atof(r.Circuit.Location.Long),
		Format:      models.FormatConventional,
		RaceStart:   raceStart,
	}
	if d, ok := track.OvertakeDifficulty(w.CircuitID); ok {
		w.OvertakeDifficulty = d
	}
	if r.Sprint != nil {
		w.Format = models.FormatSprint
	}

	sprintQuali := r.SprintQualifying
	if sprintQuali == nil {
		sprintQuali = r.SprintShootout
	}
	sessions := []struct {
		s    *ergastSession
		typ  models.SessionType
		name string
	}{
		{r.FirstPractice, models.SessionPractice, "Practice 1"},
		{r.SecondPractice, models.SessionPractice, "Practice 2"},
		{r.ThirdPractice, models.SessionPractice, "Practice 3"},
		{sprintQuali, models.SessionQualifying, "Sprint Qualifying"},
		{r.Sprint, models.SessionSprint, "Sprint"},
		{r.Qualifying, models.SessionQualifying, "Qualifying"},
	}
	for _, s := range sessions {
		if s.s == nil {
			continue
		}
		start, err := parseSessionTime(s.s.Date, s.s.Time)
		if err != nil {
			return models.RaceWeekend{}, err
		}
		w.Sessions = append(w.Sessions, models.Session{Type: s.typ, Name: s.name, Start: start})
	}
	w.Sessions = append(w.Sessions, models.Session{Type: models.SessionRace, Name: "Race", Start: raceStart})
	return w, nil
}

func toResults(season, round int, in []ergastResult) []models.RaceResult {
	out := make([]models.RaceResult, 0, len(in))
	for _, r := range in {
		out = append(out, models.RaceResult{
			Season:        season,
			Round:         round,
			Driver:        driverCode(r.Driver),
			ConstructorID: r.Constructor.ConstructorID,
			Position:      atoi(r.Position),
			Grid:          atoi(r.Grid),
			Status:        r.Status,
			Points:        atof(r.Points),
		})
	}
	return out
}

// driverCode falls back to the upper-cased first letters of the family name
// for historical entries without a published code.
func driverCode(d ergastDriver) string {
	if d.Code != "" {
		return strings.ToUpper(d.Code)
	}
	name := strings.ToUpper(strings.ReplaceAll(d.FamilyName, " ", ""))
	if len(name) >= 3 {
		return name[:3]
	}
	return strings.ToUpper(d.DriverID)
}

func parseSessionTime(date, clock string) (time.Time, error) {
	if clock == "" {
		clock = "00:00:00Z"
	}
	t, err := time.Parse(time.RFC3339, date+"T"+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("session time %s %s: %w", date, clock, err)
	}
	return t.UTC(), nil
}

// parseLapTime converts "1:23.456" or "83.456" to seconds. Empty or invalid input returns 0.
func parseLapTime(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	minutes := 0.0
	if i := strings.Index(s, ":"); i >= 0 {
		m, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0
		}
		minutes = float64(m)
		s = s[i+1:]
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return minutes*60 + secs
}

func bestLap(times ...string) float64 {
	best := math.Inf(1)
	for _, t := range times {
		if v := parseLapTime(t); v > 0 && v < best {
			best = v
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return best
}

func atoi(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}

func atof(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}
