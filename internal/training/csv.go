package training

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/yourusername/f1-predictor/internal/ml"
	"github.com/yourusername/f1-predictor/internal/models"
)

// ErrEmptyDataset is returned when there are no rows to export.
var ErrEmptyDataset = errors.New("dataset has no rows")

var keyColumns = []string{"Season", "Round", "Session", "Driver"}

// WriteCSV writes rows as a CSV table with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return ErrEmptyDataset
	}
	df := dataframe.LoadStructs(rows)
	if df.Err != nil {
		return fmt.Errorf("failed to build data frame: %w", df.Err)
	}
	return df.WriteCSV(w)
}

// SaveCSV writes rows to a file.
func SaveCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCSV reads rows written by WriteCSV. The Constructor and label columns
// are optional; a missing Target is derived from Position and FieldSize.
func ReadCSV(r io.Reader) ([]Row, error) {
	df := dataframe.ReadCSV(r, dataframe.DetectTypes(false), dataframe.DefaultType(series.String))
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", df.Err)
	}

	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}
	for _, name := range keyColumns {
		if !present[name] {
			return nil, models.ConfigurationErrorf("training csv is missing column %s", name)
		}
	}
	for _, name := range models.FeatureNames {
		if !present[string(name)] {
			return nil, models.ConfigurationErrorf("training csv is missing column %s", name)
		}
	}
	if !present["Target"] && !(present["Position"] && present["FieldSize"]) {
		return nil, models.ConfigurationErrorf("training csv needs Target or Position and FieldSize")
	}

	n := df.Nrow()
	rows := make([]Row, n)

	ints := map[string]func(*Row, int){
		"Season":    func(r *Row, v int) { r.Season = v },
		"Round":     func(r *Row, v int) { r.Round = v },
		"Position":  func(r *Row, v int) { r.Position = v },
		"FieldSize": func(r *Row, v int) { r.FieldSize = v },
	}
	for name, set := range ints {
		if !present[name] {
			continue
		}
		values, err := df.Col(name).Int()
		if err != nil {
			return nil, models.ConfigurationErrorf("training csv column %s: %v", name, err)
		}
		for i, v := range values {
			set(&rows[i], v)
		}
	}

	for i, v := range df.Col("Session").Records() {
		if _, err := ml.FeatureSet(models.SessionType(v)); err != nil {
			return nil, models.ConfigurationErrorf("training csv row %d: %v", i+1, err)
		}
		rows[i].Session = v
	}
	for i, v := range df.Col("Driver").Records() {
		rows[i].Driver = v
	}
	if present["Constructor"] {
		for i, v := range df.Col("Constructor").Records() {
			rows[i].Constructor = v
		}
	}
	if present["WeatherSource"] {
		for i, v := range df.Col("WeatherSource").Records() {
			rows[i].WeatherSource = v
		}
	}

	vectors := make([]models.FeatureVector, n)
	for _, name := range models.FeatureNames {
		values, err := floats(df, string(name))
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			vectors[i].Set(name, v)
		}
	}
	for i := range rows {
		rows[i].setFeatures(&vectors[i])
	}

	if present["Target"] {
		values, err := floats(df, "Target")
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			rows[i].Target = v
		}
	} else {
		for i := range rows {
			rows[i].Target = ml.Relevance(rows[i].Position, rows[i].FieldSize)
		}
	}
	return rows, nil
}

// LoadCSV reads the rows of every file in order.
func LoadCSV(paths ...string) ([]Row, error) {
	var rows []Row
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, models.ConfigurationErrorf("failed to open %s: %v", path, err)
		}
		fileRows, err := ReadCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

func floats(df dataframe.DataFrame, name string) ([]float64, error) {
	values := df.Col(name).Float()
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, models.ConfigurationErrorf("training csv row %d: %s is not a number", i+1, name)
		}
	}
	return values, nil
}

func (r *Row) setFeatures(fv *models.FeatureVector) {
	r.TrackTemp = fv.TrackTemp
	r.OvertakeDifficulty = fv.OvertakeDifficulty
	r.DriverAvgPos = fv.DriverAvgPos
	r.DriverDNFRate = fv.DriverDNFRate
	r.QualiDeltaTeammate = fv.QualiDeltaTeammate
	r.ReliabilityScore = fv.ReliabilityScore
	r.GridPosition = fv.GridPosition
	r.RacePace = fv.RacePace
	r.TireDegradation = fv.TireDegradation
	r.TopSpeed = fv.TopSpeed
	r.RainProbability = fv.RainProbability
}
