package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a configuration file, applies defaults and loads every
// directory it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path

	if err := cfg.LoadDirs(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a configuration document and applies defaults.
// Directories are not read.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadDirs loads the task, service and pipeline directories. Relative
// directories resolve against base. A named directory that cannot be read
// is an error.
func (c *Config) LoadDirs(base string) error {
	var err error
	if c.ECS.DiscoveredTasks, err = loadDir[Task](base, c.ECS.TasksDir, func(t *Task, src string) { t.Source = src }); err != nil {
		return fmt.Errorf("ecs.tasksDir: %w", err)
	}
	if c.ECS.DiscoveredServices, err = loadDir[Service](base, c.ECS.ServicesDir, func(s *Service, src string) { s.Source = src }); err != nil {
		return fmt.Errorf("ecs.servicesDir: %w", err)
	}
	if c.CodePipeline.Discovered, err = loadDir[Pipeline](base, c.CodePipeline.ConfigDir, func(p *Pipeline, src string) { p.Source = src }); err != nil {
		return fmt.Errorf("codepipeline.configDir: %w", err)
	}
	for i := range c.CodePipeline.Discovered {
		c.CodePipeline.Discovered[i].applyDefaults()
	}
	return nil
}

// Dirs returns the resolved directories named by the configuration.
func (c *Config) Dirs() []string {
	base := filepath.Dir(c.Path)
	var dirs []string
	for _, d := range []string{c.ECS.TasksDir, c.ECS.ServicesDir, c.CodePipeline.ConfigDir} {
		if d != "" {
			dirs = append(dirs, resolve(base, d))
		}
	}
	return dirs
}

// IsConfigFile reports whether name has a YAML extension.
func IsConfigFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yml" || ext == ".yaml"
}

// loadDir decodes one T from every YAML file in dir, in directory order.
func loadDir[T any](base, dir string, setSource func(*T, string)) ([]T, error) {
	if dir == "" {
		return nil, nil
	}
	dir = resolve(base, dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var items []T
	for _, entry := range entries {
		if entry.IsDir() || !IsConfigFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var item T
		if err := yaml.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		setSource(&item, path)
		items = append(items, item)
	}
	return items, nil
}

func resolve(base, dir string) string {
	if filepath.IsAbs(dir) || base == "" {
		return dir
	}
	return filepath.Join(base, dir)
}

func (p *Pipeline) applyDefaults() {
	if p.BranchToWatch == "" {
		p.BranchToWatch = DefaultBranch
	}
	if p.ServiceNameReference == "" {
		p.ServiceNameReference = p.TaskNameReference
	}
}
