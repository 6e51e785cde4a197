// Package ruleset loads the static game content: skills and character classes.
package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlFiles returns the .yaml/.yml files directly inside dir, sorted by name.
func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// loadAll parses every YAML file in dir as a T.
func loadAll[T any](dir, kind string) ([]*T, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var v T
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parsing %s file %s: %w", kind, path, err)
		}
		out = append(out, &v)
	}
	return out, nil
}

// Catalog bundles the loaded skills and classes.
type Catalog struct {
	Skills  *SkillSet
	Classes []*Class
}

// LoadCatalog loads skills from skillsDir and classes from classesDir. An
// empty directory path selects the built-in defaults for that kind.
//
// Postcondition: Returns a catalog with a non-nil SkillSet, or an error.
func LoadCatalog(skillsDir, classesDir string) (*Catalog, error) {
	skills := DefaultSkills()
	if skillsDir != "" {
		loaded, err := LoadSkills(skillsDir)
		if err != nil {
			return nil, err
		}
		skills = loaded
	}
	set, err := NewSkillSet(skills, DefaultSkillName)
	if err != nil {
		return nil, err
	}

	classes := DefaultClasses()
	if classesDir != "" {
		loaded, err := LoadClasses(classesDir)
		if err != nil {
			return nil, err
		}
		classes = loaded
	}
	for _, c := range classes {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return &Catalog{Skills: set, Classes: classes}, nil
}

// Class returns the class whose id or name matches idOrName case-insensitively.
func (c *Catalog) Class(idOrName string) (*Class, bool) {
	for _, cl := range c.Classes {
		if strings.EqualFold(cl.ID, idOrName) || strings.EqualFold(cl.Name, idOrName) {
			return cl, true
		}
	}
	return nil, false
}
