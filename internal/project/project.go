package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/KaramelBytes/dashloom-cli/internal/utils"
	"github.com/google/uuid"
)

// ErrNoDataset is returned when an operation needs the project's dataset
// before one was added.
var ErrNoDataset = errors.New("no dataset added to project")

// ErrNoSpec is returned when an operation needs a generated dashboard.
var ErrNoSpec = errors.New("no dashboard generated yet")

// Project represents a dashboard project persisted on disk.
type Project struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Dataset     *DatasetRef          `json:"dataset,omitempty"`
	Spec        *dashboard.Spec      `json:"spec,omitempty"`
	History     []HistoryEntry       `json:"history"`
	Forecasts   map[string]*Forecast `json:"forecasts,omitempty"`
	Config      *ProjectConfig       `json:"config"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`

	// Not serialized: on-disk location of the project.json
	rootDir string `json:"-"`
}

type ProjectConfig struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Theme       string  `json:"theme,omitempty"`
}

// DatasetRef points at the data file backing the dashboard.
type DatasetRef struct {
	ID      string    `json:"id"`
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Columns []string  `json:"columns"`
	Rows    int       `json:"rows"`
	AddedAt time.Time `json:"added_at"`
}

// NewProject constructs an in-memory project. Call Save() to persist.
func NewProject(name, description, rootDir string) *Project {
	return &Project{
		Name:        name,
		Description: description,
		Forecasts:   make(map[string]*Forecast),
		// Leave Config fields empty to inherit from global defaults unless explicitly set per project.
		Config:    &ProjectConfig{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		rootDir:   rootDir,
	}
}

// LoadProject loads a project.json from the provided directory.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, utils.ProjectFile)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if p.Config == nil {
		p.Config = &ProjectConfig{}
	}
	p.rootDir = dir
	return &p, nil
}

// RootDir returns the on-disk project directory path.
func (p *Project) RootDir() string { return p.rootDir }

// Save writes project.json using atomic write.
func (p *Project) Save() error {
	if p.rootDir == "" {
		return errors.New("project root directory not set")
	}
	if err := utils.EnsureDir(p.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	p.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(p)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(p.rootDir, utils.ProjectFile), data)
}

// SetDataset parses a data file and records it as the project's dataset.
// The parsed dataset is returned so callers can use it without reloading.
func (p *Project) SetDataset(path string) (*dataset.Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve dataset path: %w", err)
	}
	ds, err := dataset.Load(abs)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	cols := ds.Columns
	if len(cols) == 0 {
		cols = dataset.ColumnsOf(ds.Rows)
	}
	p.Dataset = &DatasetRef{
		ID:      uuid.NewString(),
		Path:    abs,
		Name:    ds.Name,
		Columns: cols,
		Rows:    len(ds.Rows),
		AddedAt: time.Now(),
	}
	// A new dataset invalidates forecasts computed against the old one.
	p.Forecasts = make(map[string]*Forecast)
	p.UpdatedAt = time.Now()
	return ds, nil
}

// LoadDataset re-reads the project's data file.
func (p *Project) LoadDataset() (*dataset.Dataset, error) {
	if p.Dataset == nil {
		return nil, ErrNoDataset
	}
	ds, err := dataset.Load(p.Dataset.Path)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", p.Dataset.Name, err)
	}
	return ds, nil
}

// Element looks up an element of the current dashboard.
func (p *Project) Element(id string) (dashboard.ElementSpec, error) {
	if p.Spec == nil {
		return dashboard.ElementSpec{}, ErrNoSpec
	}
	e, ok := p.Spec.Element(id)
	if !ok {
		return dashboard.ElementSpec{}, fmt.Errorf("element %q not found in dashboard %q", id, p.Spec.Title)
	}
	return e, nil
}
