// Package stub defines the plugin registration contract generated per-MIB
// modules use to install their scalars and tables into the running agent,
// and the YAML compliance manifest those modules append to (spec.md §6
// "Stub/plugin surface"). There is no dynamic loading: every stub module is
// linked into the binary at build time and its LoadFunc is called once
// during startup.
package stub

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vpbank/snmpagent/pkg/snmpagent/agent"
	"github.com/vpbank/snmpagent/pkg/snmpagent/config"
	"github.com/vpbank/snmpagent/pkg/snmpagent/oidmap"
	"github.com/vpbank/snmpagent/pkg/snmpagent/usmuser"
)

// LoadFunc is the single entry point every generated MIB stub module
// exposes: `load_stub(oid_map, config, agent, users, compliance)`.
type LoadFunc func(oids *oidmap.OidMap, cfg *config.Config, ag *agent.Agent, users *usmuser.Table, compliance *Compliance) error

// Statement records one compliance claim: a MIB module's group and the
// object names it declares mandatory.
type Statement struct {
	Module    string   `yaml:"module"`
	Group     string   `yaml:"group"`
	Mandatory []string `yaml:"mandatory"`
}

// Compliance accumulates the compliance statements recorded by every stub
// module loaded during startup.
type Compliance struct {
	Statements []Statement `yaml:"statements"`
}

// Record appends one compliance statement.
func (c *Compliance) Record(module, group string, mandatory []string) {
	c.Statements = append(c.Statements, Statement{Module: module, Group: group, Mandatory: mandatory})
}

// WriteYAML marshals the accumulated compliance manifest to path.
func (c *Compliance) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("stub: marshaling compliance manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("stub: writing compliance manifest %s: %w", path, err)
	}
	return nil
}

// LoadComplianceYAML reads a previously written compliance manifest, used
// by operational tooling to audit which modules are linked into a build.
func LoadComplianceYAML(path string) (*Compliance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stub: reading compliance manifest %s: %w", path, err)
	}
	var c Compliance
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("stub: parsing compliance manifest %s: %w", path, err)
	}
	return &c, nil
}

// Registry runs every linked stub's LoadFunc in order, threading a single
// Compliance accumulator through all of them.
type Registry struct {
	loaders []LoadFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// Add links a stub module's LoadFunc into the registry. Call before LoadAll.
func (r *Registry) Add(f LoadFunc) {
	r.loaders = append(r.loaders, f)
}

// LoadAll invokes every registered LoadFunc in registration order and
// returns the accumulated compliance manifest.
func (r *Registry) LoadAll(oids *oidmap.OidMap, cfg *config.Config, ag *agent.Agent, users *usmuser.Table) (*Compliance, error) {
	compliance := &Compliance{}
	for i, f := range r.loaders {
		if err := f(oids, cfg, ag, users, compliance); err != nil {
			return nil, fmt.Errorf("stub: loader %d: %w", i, err)
		}
	}
	return compliance, nil
}
