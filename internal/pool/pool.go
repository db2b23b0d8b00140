// Package pool manages resolver engine instances keyed by export
// condition set and applies tsconfig path aliases before plain
// resolution.
package pool

import (
	"path/filepath"
	"strings"

	"tsbridge/internal/engine"
	"tsbridge/internal/tsconfig"
)

// DefaultConditions is the condition set of the pre-created default
// instance; the hot path uses it without a map lookup.
var DefaultConditions = []string{"import", "node"}

// Pool owns one engine.Instance per distinct condition set plus a
// cache of discovered alias tables. Instances live for the process
// lifetime once created.
type Pool struct {
	defaultKey      string
	defaultInstance *engine.Instance
	instances       map[string]*engine.Instance

	// alias tables per discovered config path; nil marks a config that
	// failed to load so it is not re-parsed every resolution.
	tables map[string]*tsconfig.Table
}

// New creates a pool with a pre-built instance for defaultConditions
// (DefaultConditions when nil).
func New(defaultConditions []string) *Pool {
	if defaultConditions == nil {
		defaultConditions = DefaultConditions
	}
	return &Pool{
		defaultKey:      conditionsKey(defaultConditions),
		defaultInstance: engine.New(engine.Options{Conditions: defaultConditions}),
		instances:       make(map[string]*engine.Instance),
		tables:          make(map[string]*tsconfig.Table),
	}
}

func conditionsKey(conditions []string) string {
	return strings.Join(conditions, "\x00")
}

// instanceFor returns the engine instance for the given condition set,
// creating it on first use. The default set bypasses the map.
func (p *Pool) instanceFor(conditions []string) *engine.Instance {
	key := conditionsKey(conditions)
	if key == p.defaultKey {
		return p.defaultInstance
	}
	if inst, ok := p.instances[key]; ok {
		return inst
	}
	inst := engine.New(engine.Options{Conditions: conditions})
	p.instances[key] = inst
	return inst
}

// Resolve maps a specifier to an absolute path, trying the nearest
// tsconfig alias table first and falling back to plain engine
// resolution. Returns false when nothing matched.
func (p *Pool) Resolve(specifier, parentDir string, conditions []string) (string, bool) {
	inst := p.instanceFor(conditions)

	if table := p.tableFor(parentDir); table != nil {
		if m, ok := table.MatchSpecifier(specifier); ok {
			// первый разрешившийся replacement побеждает; шаблоны —
			// это fallback-цепочка, не альтернативы
			for _, template := range m.Pattern.Replacements {
				expanded := tsconfig.ExpandReplacement(template, m.Captured)
				if resolved, ok := p.resolveAgainstBase(inst, expanded, table.BaseDir); ok {
					return resolved, true
				}
			}
		}
	}

	resolved, err := inst.Resolve(specifier, parentDir)
	if err != nil {
		return "", false
	}
	return resolved, true
}

func (p *Pool) resolveAgainstBase(inst *engine.Instance, expanded, baseDir string) (string, bool) {
	spec := expanded
	if !filepath.IsAbs(expanded) && !strings.HasPrefix(expanded, "./") && !strings.HasPrefix(expanded, "../") {
		spec = "./" + expanded
	}
	resolved, err := inst.Resolve(spec, baseDir)
	if err != nil {
		return "", false
	}
	return resolved, true
}

// tableFor walks up from dir to the nearest tsconfig.json and returns
// its alias table, loading and caching it on first sight.
func (p *Pool) tableFor(dir string) *tsconfig.Table {
	configPath, ok, err := tsconfig.Find(dir)
	if err != nil || !ok {
		return nil
	}
	if table, seen := p.tables[configPath]; seen {
		return table
	}
	table, err := tsconfig.Load(configPath)
	if err != nil {
		table = nil
	}
	p.tables[configPath] = table
	return table
}

// ClearCache drops alias tables and propagates to every pooled
// instance, not only the default one.
func (p *Pool) ClearCache() {
	p.tables = make(map[string]*tsconfig.Table)
	p.defaultInstance.ClearCache()
	for _, inst := range p.instances {
		inst.ClearCache()
	}
}
