// Package dataset loads tabular CSV data into immutable numeric matrices
// for the genetic engine. The last column is the regression target, every
// other column is a feature. Validation happens here so no missing or
// non-numeric value ever reaches the fitness evaluator.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Dataset is an immutable rows x columns numeric matrix. It satisfies the
// engine's read-only dataset contract: safe for concurrent readers, no
// mutation after construction.
type Dataset struct {
	name string
	m    *mat.Dense
	rows int
	cols int
}

// New builds a dataset from parsed rows. The matrix must be non-empty and
// rectangular with at least two columns (one feature plus the target).
func New(name string, rows [][]float64) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %q: no rows", name)
	}
	cols := len(rows[0])
	if cols < 2 {
		return nil, fmt.Errorf("dataset %q: need at least 2 columns, got %d", name, cols)
	}

	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("dataset %q: row %d has %d columns, expected %d", name, i, len(row), cols)
		}
		data = append(data, row...)
	}

	return &Dataset{
		name: name,
		m:    mat.NewDense(len(rows), cols, data),
		rows: len(rows),
		cols: cols,
	}, nil
}

// Name returns the dataset's registry name.
func (d *Dataset) Name() string {
	return d.name
}

// NumRows returns the number of samples.
func (d *Dataset) NumRows() int {
	return d.rows
}

// NumFeatures returns the number of feature columns (all but the target).
func (d *Dataset) NumFeatures() int {
	return d.cols - 1
}

// Features returns the feature values of row i. The returned slice aliases
// the underlying matrix and must not be modified.
func (d *Dataset) Features(i int) []float64 {
	return d.m.RawRowView(i)[:d.cols-1]
}

// Target returns the target value of row i.
func (d *Dataset) Target(i int) float64 {
	return d.m.At(i, d.cols-1)
}

// LoadCSV parses CSV content into a dataset. The first record is treated as
// a header and dropped, and the first column is treated as a row index and
// dropped, matching the layout the experiment datasets ship in.
func LoadCSV(r io.Reader, name string) (*Dataset, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("dataset %q: no data rows", name)
	}

	// Skip the header record.
	records = records[1:]

	rows := make([][]float64, 0, len(records))
	for i, record := range records {
		if len(record) < 2 {
			return nil, fmt.Errorf("dataset %q: row %d has %d fields", name, i, len(record))
		}
		// Drop the leading index column.
		record = record[1:]

		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("dataset %q: row %d column %d: %w", name, i, j, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}

	return New(name, rows)
}

// LoadFile loads a CSV file, naming the dataset after the file's base name
// without extension.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return LoadCSV(f, name)
}

// Registry is a thread-safe collection of named datasets loaded at startup.
type Registry struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{datasets: make(map[string]*Dataset)}
}

// Add registers a dataset under its name, replacing any previous entry.
func (r *Registry) Add(d *Dataset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[d.Name()] = d
}

// Get returns the named dataset, or false when unknown.
func (r *Registry) Get(name string) (*Dataset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.datasets[name]
	return d, ok
}

// Names returns the registered dataset names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.datasets))
	for name := range r.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDir loads every .csv file in dir into the registry. Missing
// directories are not an error so the service can start with no datasets.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		d, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		r.Add(d)
	}
	return nil
}
