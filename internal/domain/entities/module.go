package entities

import (
	"path/filepath"
	"sort"
)

// Module is a vendored library tracked under the registry's modules root.
type Module struct {
	Name string
	Dir  string
}

// VersionDir returns the path of the named version folder of the module.
func (m Module) VersionDir(name string) string {
	return filepath.Join(m.Dir, name)
}

// ModuleIndex maps every module name to its newest version. It is built once
// per run from resolution results and is the only way components look up
// "the newest version" of a module.
type ModuleIndex struct {
	newest map[string]Version
}

// NewModuleIndex builds an index from already resolved versions.
func NewModuleIndex(versions ...Version) *ModuleIndex {
	index := &ModuleIndex{newest: make(map[string]Version, len(versions))}
	for _, v := range versions {
		index.newest[v.Module] = v
	}
	return index
}

// Newest returns the newest version of the named module.
func (i *ModuleIndex) Newest(module string) (Version, bool) {
	v, ok := i.newest[module]
	return v, ok
}

// Len returns how many modules are indexed.
func (i *ModuleIndex) Len() int {
	return len(i.newest)
}

// Versions returns the indexed versions sorted by module name.
func (i *ModuleIndex) Versions() []Version {
	result := make([]Version, 0, len(i.newest))
	for _, v := range i.newest {
		result = append(result, v)
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].Module < result[b].Module
	})
	return result
}

// Filter returns the versions whose module name is in names. An empty filter
// returns everything.
func (i *ModuleIndex) Filter(names []string) []Version {
	all := i.Versions()
	if len(names) == 0 {
		return all
	}
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}
	result := make([]Version, 0, len(names))
	for _, v := range all {
		if _, ok := wanted[v.Module]; ok {
			result = append(result, v)
		}
	}
	return result
}
