// Package storage persists runs under a base directory, one
// subdirectory per run holding metadata.json and snapshots.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/reactsim/reactsim/internal/ode"
	"github.com/reactsim/reactsim/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	N          int       `json:"n"`
	A          float64   `json:"a"`
	B          float64   `json:"b"`
	Alpha      float64   `json:"alpha"`
	Forcing    bool      `json:"forcing"`
	Dt         float64   `json:"dt"`
	Duration   float64   `json:"duration"`
	Integrator string    `json:"integrator"`
	Steps      int       `json:"steps"`
	FinalTime  float64   `json:"final_time"`

	Metrics map[string]float64 `json:"metrics"`
}

// RunInfo carries the parameters recorded alongside a result.
type RunInfo struct {
	N          int
	A          float64
	B          float64
	Alpha      float64
	Forcing    bool
	Dt         float64
	Duration   float64
	Integrator string
}

func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("bruss_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Timestamp:  time.Now(),
		N:          info.N,
		A:          info.A,
		B:          info.B,
		Alpha:      info.Alpha,
		Forcing:    info.Forcing,
		Dt:         info.Dt,
		Duration:   info.Duration,
		Integrator: info.Integrator,
		Steps:      result.StepsTaken,
		FinalTime:  result.FinalTime,
		Metrics:    result.Metrics,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "snapshots.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := writeSnapshots(csvFile, result); err != nil {
		return "", err
	}

	return runID, nil
}

func writeSnapshots(out io.Writer, result *sim.Result) error {
	if len(result.Snapshots) == 0 {
		return nil
	}

	w := csv.NewWriter(out)

	header := []string{"time"}
	for i := range result.Snapshots[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, snap := range result.Snapshots {
		row := make([]string, 0, len(snap)+1)
		row = append(row, strconv.FormatFloat(result.Times[i], 'f', 6, 64))
		for _, val := range snap {
			row = append(row, strconv.FormatFloat(val, 'g', 12, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	// csv.Writer buffers; the flush is where a short write surfaces.
	w.Flush()
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadSnapshots(runID string) ([]ode.State, []float64, error) {
	csvPath := filepath.Join(s.baseDir, runID, "snapshots.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return []ode.State{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	snaps := make([]ode.State, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 2 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		snap := make(ode.State, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: %s row %d: %w", runID, i, err)
			}
			snap = append(snap, val)
		}

		times = append(times, t)
		snaps = append(snaps, snap)
	}

	return snaps, times, nil
}
