package suite

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry holds every loaded suite, keyed by name. Multiple files
// contributing to the same suite_name compose in load order, which LoadDir
// and LoadBuiltins make deterministic (file-name sorted order, per spec.md
// §4.3).
type Registry struct {
	suites map[string]*Suite
}

// NewRegistry returns an empty suite registry.
func NewRegistry() *Registry {
	return &Registry{suites: make(map[string]*Suite)}
}

// LoadDir scans dir for "*.yaml" files in sorted order and loads each one.
// A malformed file is reported immediately; files already processed remain
// registered (mirrors load_all_definitions' best-effort posture, but
// surfaces the failure to the caller instead of only logging it).
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("suite: reading %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.LoadFile(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile loads and registers a single suite YAML document.
func (r *Registry) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("suite: reading %s: %w", path, err)
	}
	return r.LoadBytes(raw, filepath.Base(path))
}

// LoadBytes parses and registers raw as a suite YAML document, identified by
// fileName in error messages.
func (r *Registry) LoadBytes(raw []byte, fileName string) error {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("suite file %s: %w", fileName, err)
	}
	if err := validate(doc, fileName); err != nil {
		return err
	}
	r.register(doc)
	return nil
}

// register is additive: a suite already present gains doc's tests appended
// and doc's extends merged in, rather than being replaced.
func (r *Registry) register(doc Document) {
	existing, ok := r.suites[doc.SuiteName]
	if !ok {
		r.suites[doc.SuiteName] = &Suite{
			Name:    doc.SuiteName,
			Extends: append([]string(nil), doc.Extends...),
			Tests:   append([]TestDef(nil), doc.Tests...),
		}
		return
	}
	existing.Extends = append(existing.Extends, doc.Extends...)
	existing.Tests = append(existing.Tests, doc.Tests...)
}

// Names returns every registered suite name, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.suites))
	for n := range r.suites {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ErrUnknownSuite is returned when Resolve (or an extends reference) names a
// suite that was never registered.
type ErrUnknownSuite struct {
	Name string
}

func (e *ErrUnknownSuite) Error() string { return fmt.Sprintf("suite: unknown suite %q", e.Name) }

// ErrCycle is returned when extends resolution finds a suite that
// (transitively) extends itself.
type ErrCycle struct {
	Path []string
}

func (e *ErrCycle) Error() string {
	return fmt.Sprintf("suite: extends cycle detected: %s", strings.Join(e.Path, " -> "))
}

// Resolve returns the fully-resolved test list for name: a depth-first walk
// that concatenates each parent's resolved tests (in extends order) before
// name's own tests, detecting cycles via a path-scoped visited set.
func (r *Registry) Resolve(name string) ([]TestDef, error) {
	return r.resolve(name, nil)
}

func (r *Registry) resolve(name string, path []string) ([]TestDef, error) {
	for _, p := range path {
		if p == name {
			return nil, &ErrCycle{Path: append(append([]string(nil), path...), name)}
		}
	}
	s, ok := r.suites[name]
	if !ok {
		return nil, &ErrUnknownSuite{Name: name}
	}

	path = append(path, name)
	var out []TestDef
	for _, parent := range s.Extends {
		parentTests, err := r.resolve(parent, path)
		if err != nil {
			return nil, err
		}
		out = append(out, parentTests...)
	}
	out = append(out, s.Tests...)
	return out, nil
}
