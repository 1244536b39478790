// Package scenario loads YAML acceptance scenarios and runs them step by step
// against the blog actions.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"
)

// Scenario is an ordered list of steps that together script one user journey.
type Scenario struct {
	Name  string   `yaml:"name" validate:"required"`
	Tags  []string `yaml:"tags"`
	Steps []Step   `yaml:"steps" validate:"required,min=1,dive"`

	// Path is the file the scenario was loaded from, if any.
	Path string `yaml:"-"`
}

// Step names one action and its arguments.
type Step struct {
	Action string `yaml:"action" validate:"required,action"`
	Args   Args   `yaml:"args"`
}

// Args holds every argument an action may take; each action reads only its own.
type Args struct {
	Title    string `yaml:"title"`
	Tag      string `yaml:"tag"`
	Limit    string `yaml:"limit"`
	Username string `yaml:"username"`
	Role     string `yaml:"role"`
	Message  string `yaml:"message"`
	Count    *int   `yaml:"count"`
}

// has reports whether the named argument is set.
func (a Args) has(name string) bool {
	switch name {
	case "title":
		return a.Title != ""
	case "tag":
		return a.Tag != ""
	case "limit":
		return a.Limit != ""
	case "username":
		return a.Username != ""
	case "role":
		return a.Role != ""
	case "message":
		return a.Message != ""
	case "count":
		return a.Count != nil && *a.Count >= 0
	}
	return false
}

// HasTag reports whether the scenario carries tag.
func (s *Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("action", func(fl validator.FieldLevel) bool {
		_, ok := steps[fl.Field().String()]
		return ok
	})
	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		step := sl.Current().Interface().(Step)
		def, ok := steps[step.Action]
		if !ok {
			return
		}
		for _, arg := range def.args {
			if !step.Args.has(arg) {
				sl.ReportError(step.Args, "Args."+arg, arg, "required_arg", step.Action)
			}
		}
	}, Step{})
	return validate
}

// Validate checks the scenario shape, that every action is known and that
// each step carries the arguments its action needs.
func (s *Scenario) Validate() error {
	if err := newValidator().Struct(s); err != nil {
		return fmt.Errorf("invalid scenario %q: %w", s.Name, err)
	}
	return nil
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.Path = path
	return sc, nil
}

// LoadPaths loads each path; a directory contributes its .yaml and .yml files
// in name order. Any invalid file fails the whole load.
func LoadPaths(logger arbor.ILogger, paths ...string) ([]*Scenario, error) {
	var scenarios []*Scenario
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("scenario path %s: %w", path, err)
		}

		files := []string{path}
		if info.IsDir() {
			files, err = scenarioFiles(path)
			if err != nil {
				return nil, err
			}
			if len(files) == 0 {
				logger.Warn().Str("dir", path).Msg("No scenario files found in directory")
			}
		}

		for _, file := range files {
			sc, err := Load(file)
			if err != nil {
				return nil, err
			}
			logger.Debug().Str("file", file).Str("name", sc.Name).Int("steps", len(sc.Steps)).Msg("Scenario loaded")
			scenarios = append(scenarios, sc)
		}
	}
	return scenarios, nil
}

func scenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Filter keeps the scenarios carrying any of tags; no tags keeps everything.
func Filter(scenarios []*Scenario, tags []string) []*Scenario {
	if len(tags) == 0 {
		return scenarios
	}
	var kept []*Scenario
	for _, sc := range scenarios {
		for _, tag := range tags {
			if sc.HasTag(tag) {
				kept = append(kept, sc)
				break
			}
		}
	}
	return kept
}
