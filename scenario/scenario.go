package scenario

import (
	"bytes"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/effectcheck/effect"
)

// Scenario is one effect scenario file.
type Scenario struct {
	// Name uniquely identifies the scenario within a directory.
	Name string `yaml:"name" validate:"required"`

	// Description explains what the scenario covers.
	Description string `yaml:"description,omitempty"`

	// Action is the key the action is registered under when running.
	Action string `yaml:"action" validate:"required"`

	// Payload is passed to the action.
	Payload any `yaml:"payload,omitempty"`

	// Initial collaborator contents. Missing maps start empty.
	State       map[string]any `yaml:"state,omitempty"`
	Getters     map[string]any `yaml:"getters,omitempty"`
	RootState   map[string]any `yaml:"root_state,omitempty"`
	RootGetters map[string]any `yaml:"root_getters,omitempty"`

	// Comparator is the run-level comparator name. Empty uses the process
	// default.
	Comparator string `yaml:"comparator,omitempty" validate:"omitempty,comparator"`

	// Expect lists the effects in emission order. Each entry has kind and name,
	// and optionally payload, options and comparator. An entry without a
	// payload key matches any payload.
	Expect []map[string]any `yaml:"expect" validate:"required"`

	// Result is the action's expected return value, compared by canonical
	// JSON. Only checked when the key is present.
	Result any `yaml:"result,omitempty"`

	// Skip, when set, is the reason the scenario is not run.
	Skip string `yaml:"skip,omitempty"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`

	hasResult bool
}

// HasResult reports whether the file declares an expected result.
func (s *Scenario) HasResult() bool { return s.hasResult }

// scenarioValidate is the validator instance for decoded scenarios.
// Initialized in init() with the comparator name rule.
var scenarioValidate *validator.Validate

func init() {
	scenarioValidate = validator.New()
	_ = scenarioValidate.RegisterValidation("comparator", validateComparatorName)
}

func validateComparatorName(fl validator.FieldLevel) bool {
	_, err := effect.ComparatorByName(fl.Field().String())
	return err == nil
}

// Load reads and parses a scenario file.
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields or does not satisfy the scenario schema.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// Parse decodes a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// The generic form keeps explicit nulls, which the struct cannot tell
	// apart from missing keys.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := checkSchema(raw); err != nil {
		return nil, err
	}
	_, s.hasResult = raw["result"]

	if err := scenarioValidate.Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// LoadDir loads every .yaml and .yml file under dir, recursively, in
// lexical path order. Duplicate scenario names are rejected.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := FindFiles(dir)
	if err != nil {
		return nil, err
	}

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		s, err := Load(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s", s.Name, prev, path)
		}
		seen[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// FindFiles returns the scenario files under root in lexical order. A path to
// a single file is returned as is.
func FindFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Expectations converts the expect entries into effect expectations.
func (s *Scenario) Expectations() ([]effect.Expectation, error) {
	list := make([]any, len(s.Expect))
	for i, entry := range s.Expect {
		trigger := effect.Descriptor{}
		expectation := effect.Descriptor{"trigger": trigger}
		for k, v := range entry {
			if k != "comparator" {
				trigger[k] = v
				continue
			}
			name, _ := v.(string)
			cmp, err := effect.ComparatorByName(name)
			if err != nil {
				return nil, fmt.Errorf("expect[%d]: %w", i, err)
			}
			expectation["comparator"] = cmp
		}
		list[i] = expectation
	}
	return effect.ExpectationsFromDescriptors(list)
}

// Collaborator returns a fresh collaborator seeded with the scenario's
// initial state. Each call copies the maps, so runs do not share state.
func (s *Scenario) Collaborator() *effect.Collaborator {
	c := effect.NewCollaborator()
	maps.Copy(c.State, s.State)
	maps.Copy(c.Getters, s.Getters)
	maps.Copy(c.RootState, s.RootState)
	maps.Copy(c.RootGetters, s.RootGetters)
	return c
}

// RunComparator returns the scenario's run-level comparator, or nil.
func (s *Scenario) RunComparator() (effect.Comparator, error) {
	if s.Comparator == "" {
		return nil, nil
	}
	return effect.ComparatorByName(s.Comparator)
}
