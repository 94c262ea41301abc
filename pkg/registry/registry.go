// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	apperrors "mergington-activities/internal/common/errors"
)

//go:embed seed.yaml
var defaultSeed []byte

// Default returns the catalog compiled into the binary.
func Default() (*ActivityRegistry, error) {
	return Parse(defaultSeed)
}

// LoadRegistry reads and validates a catalog file. YAML and JSON are both
// accepted.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON catalog and validates it.
func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, apperrors.NewSeedInvalidError(fmt.Sprintf("decode: %v", err))
	}
	if err := Validate(&reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks reg against the catalog schema and rejects duplicate
// activity names.
func Validate(reg *ActivityRegistry) error {
	for i := range reg.Activities {
		if reg.Activities[i].Participants == nil {
			reg.Activities[i].Participants = []string{}
		}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(catalogSchema),
		gojsonschema.NewGoLoader(reg),
	)
	if err != nil {
		return apperrors.NewSeedInvalidError(fmt.Sprintf("schema: %v", err))
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return apperrors.NewSeedInvalidError(strings.Join(msgs, "; "))
	}

	names := make(map[string]bool, len(reg.Activities))
	for _, a := range reg.Activities {
		if names[a.Name] {
			return apperrors.NewSeedInvalidError(fmt.Sprintf("duplicate activity name: %s", a.Name))
		}
		names[a.Name] = true
	}
	return nil
}

// AddActivity appends a new activity, refusing duplicates.
func (r *ActivityRegistry) AddActivity(a Activity) error {
	for _, existing := range r.Activities {
		if existing.Name == a.Name {
			return fmt.Errorf("activity %q already exists", a.Name)
		}
	}
	if a.Participants == nil {
		a.Participants = []string{}
	}
	r.Activities = append(r.Activities, a)
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// UpdateActivity sets one metadata field of the named activity.
func (r *ActivityRegistry) UpdateActivity(name, field, value string) error {
	for i := range r.Activities {
		if r.Activities[i].Name != name {
			continue
		}
		switch field {
		case "description":
			r.Activities[i].Description = value
		case "schedule":
			r.Activities[i].Schedule = value
		case "max_participants":
			var n int
			if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
				return fmt.Errorf("invalid max_participants value: %w", err)
			}
			r.Activities[i].MaxParticipants = n
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
		return nil
	}
	return fmt.Errorf("activity %q not found", name)
}

// Save writes the catalog to path, as JSON when the extension is .json and
// YAML otherwise.
func Save(reg *ActivityRegistry, path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(reg, "", "  ")
	} else {
		data, err = yaml.Marshal(reg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
