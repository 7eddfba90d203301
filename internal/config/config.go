package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"emds/internal/domain"
)

// Config models emds.yml.
type Config struct {
	Templates []domain.CaseTemplate `yaml:"templates"`
	RBAC      struct {
		Roles map[string]RBACRole `yaml:"roles"`
	} `yaml:"rbac"`
	Engine struct {
		StrictDecisions bool `yaml:"strict_decisions"`
	} `yaml:"engine"`
	Logging Logging `yaml:"logging"`
}

type RBACRole struct {
	Description string   `yaml:"description"`
	Permissions []string `yaml:"permissions"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; write one with emds config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	for _, t := range c.Templates {
		if t.ID == "" {
			return fmt.Errorf("config.templates contains a template without id")
		}
		if t.ID == domain.CustomTemplateID {
			return fmt.Errorf("template id %s is reserved", t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("template %s defined twice", t.ID)
		}
		seen[t.ID] = true
		if len(t.RequiredDivisions)+len(t.OptionalDivisions) == 0 {
			return fmt.Errorf("template %s lists no divisions", t.ID)
		}
		for _, d := range append(append([]domain.DivisionCode{}, t.RequiredDivisions...), t.OptionalDivisions...) {
			if d == "" {
				return fmt.Errorf("template %s has empty division code", t.ID)
			}
		}
	}
	if len(c.RBAC.Roles) == 0 {
		return fmt.Errorf("config.rbac.roles is required")
	}
	for roleID, role := range c.RBAC.Roles {
		if !domain.Role(roleID).IsValid() {
			return fmt.Errorf("config.rbac.roles has unknown role %s", roleID)
		}
		for _, perm := range role.Permissions {
			if perm == "" {
				return fmt.Errorf("role %s has empty permission id", roleID)
			}
		}
	}
	if _, ok := c.RBAC.Roles[string(domain.RoleAdmin)]; !ok {
		return fmt.Errorf("config.rbac.roles must include admin")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json")
	}
	return nil
}

// Template looks up a catalog entry by id.
func (c *Config) Template(id string) (domain.CaseTemplate, bool) {
	for _, t := range c.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return domain.CaseTemplate{}, false
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "emds.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	cfg, err := FromYAML([]byte(defaultTemplate))
	if err != nil {
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Config{}
	cfg.Engine.StrictDecisions = true
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `templates:
  - id: A
    name: MUX Sparse Backup
    description: Pengadaan dan instalasi backup Multiplexer untuk transmisi digital.
    required: [TEK, KEU]
    optional: [UMU, SDM]
  - id: B
    name: Transmisi (TX) Baru
    description: Pembangunan titik transmisi baru di area blank spot.
    required: [TEK, UMU, PRO]
    optional: [SDM, STA]
  - id: C
    name: Event Besar (HUT/Nasional)
    description: Persiapan teknis dan produksi untuk event skala nasional.
    required: [PRO, TEK, KEU, SDM, UMU]
    optional: [PUS, MED]
  - id: D
    name: Upgrade TVRI Klik AI
    description: Implementasi fitur AI generatif pada aplikasi TVRI Klik.
    required: [TEK, MED, KEU]
    optional: [PRO, PUS]
  - id: E
    name: Visual Studio Virtual
    description: Modernisasi tampilan studio berita dengan teknologi virtual set.
    required: [TEK, PRO, SDM, KEU]
    optional: []

rbac:
  roles:
    admin:
      description: "Manages users, divisions and may act on any case"
      permissions: [case.create, case.edit, solution.write, subtask.finalize, subtask.revise, progress.record, note.add, decision.submit, user.manage, division.manage]
    requester:
      description: "Submits cases and answers revision requests"
      permissions: [case.create, case.edit]
    reviewer:
      description: "Assesses and executes a division's subtasks"
      permissions: [solution.write, subtask.finalize, subtask.revise, progress.record, note.add]
    executive:
      description: "Decides on fully assessed cases"
      permissions: [decision.submit]

engine:
  strict_decisions: true

logging:
  level: info
  format: console
  output: stderr
`
