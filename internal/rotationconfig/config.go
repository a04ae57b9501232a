// Package rotationconfig loads the YAML file describing which secret
// stores exist and which resources they hold, in the same
// version-tagged, inline-config-map shape the rest of this codebase's
// configuration file uses.
package rotationconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opsloom/credrotate/internal/rotationerrors"
	"github.com/opsloom/credrotate/pkg/rotation"
)

// Definition is the top-level shape of a resource-configuration file.
type Definition struct {
	Version   int                     `yaml:"version"`
	Stores    map[string]StoreConfig  `yaml:"stores"`
	Resources map[string]ResourceSpec `yaml:"resources"`
}

// StoreConfig names a secret store's kind and holds its type-specific
// settings inline, the same way the codebase's ServiceConfig/ProviderConfig
// do.
type StoreConfig struct {
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:",inline"`
}

// ResourceSpec is the YAML shape of a rotation.ResourceConfiguration.
type ResourceSpec struct {
	StrategyType          string            `yaml:"strategy"`
	StoreName             string            `yaml:"store"`
	ExpirationDays        float64           `yaml:"expirationDays,omitempty"`
	ExpirationOverlapDays float64           `yaml:"expirationOverlapDays,omitempty"`
	ContentType           string            `yaml:"contentType,omitempty"`
	TargetResourceId      string            `yaml:"targetResourceId,omitempty"`
	DatabaseUser          *DatabaseUserSpec `yaml:"databaseUser,omitempty"`
}

// DatabaseUserSpec is the YAML shape of a rotation.DatabaseUserConfig.
type DatabaseUserSpec struct {
	NamePrefix       string   `yaml:"namePrefix,omitempty"`
	Roles            []string `yaml:"roles,omitempty"`
	ServerSecretName string   `yaml:"serverSecretName"`
	Hostname         string   `yaml:"hostname"`
}

// Load reads and parses the resource-configuration file at path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rotationconfig: failed to read %s: %w", path, err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("rotationconfig: failed to parse %s: %w", path, err)
	}

	if def.Version != 1 {
		return nil, rotationerrors.ConfigError{
			Field:      "version",
			Message:    fmt.Sprintf("unsupported config version %d", def.Version),
			Suggestion: "set version: 1",
		}
	}

	return &def, nil
}

// ToResourceConfigurations converts every ResourceSpec into a
// rotation.ResourceConfiguration, keyed by its map key from the file.
func (d *Definition) ToResourceConfigurations() map[string]rotation.ResourceConfiguration {
	out := make(map[string]rotation.ResourceConfiguration, len(d.Resources))
	for name, spec := range d.Resources {
		cfg := rotation.ResourceConfiguration{
			Name:                  name,
			StrategyType:          spec.StrategyType,
			StoreName:             spec.StoreName,
			ExpirationDays:        spec.ExpirationDays,
			ExpirationOverlapDays: spec.ExpirationOverlapDays,
			ContentType:           spec.ContentType,
			TargetResourceId:      spec.TargetResourceId,
		}
		if spec.DatabaseUser != nil {
			cfg.DatabaseUser = &rotation.DatabaseUserConfig{
				NamePrefix:       spec.DatabaseUser.NamePrefix,
				Roles:            spec.DatabaseUser.Roles,
				ServerSecretName: spec.DatabaseUser.ServerSecretName,
				Hostname:         spec.DatabaseUser.Hostname,
			}
		}
		out[name] = cfg
	}
	return out
}
