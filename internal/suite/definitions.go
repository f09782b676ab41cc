package suite

import "embed"

// builtinDefinitions embeds the built-in suite YAML files shipped with the
// binary, the same way cmd/web embeds its static assets in the teacher
// repo this project started from.
//
//go:embed definitions/*.yaml
var builtinDefinitions embed.FS

// LoadBuiltins registers every embedded suite definition file, in sorted
// order, into r.
func (r *Registry) LoadBuiltins() error {
	entries, err := builtinDefinitions.ReadDir("definitions")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sortNames(names)

	for _, name := range names {
		raw, err := builtinDefinitions.ReadFile("definitions/" + name)
		if err != nil {
			return err
		}
		if err := r.LoadBytes(raw, name); err != nil {
			return err
		}
	}
	return nil
}

func sortNames(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
