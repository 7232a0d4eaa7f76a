package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/log"
	"github.com/lex00/stackplan-aws-go/internal/template"
	"github.com/lex00/stackplan-aws-go/internal/validation"
)

// newWatchCmd creates the "watch" subcommand for re-planning on config changes.
func newWatchCmd(opts *globalOptions) *cobra.Command {
	var wopts watchOptions

	cmd := &cobra.Command{
		Use:   "watch <config>",
		Short: "Re-plan on configuration changes",
		Long: `Watch monitors a stack configuration and re-plans it whenever it changes.

The watch command:
- Monitors the configuration file and its task, service and pipeline directories
- Re-plans and checks the plan on each change
- Writes the template when --output is given
- Debounces rapid changes to avoid excessive re-planning

Examples:
    stackplan watch stack.yml
    stackplan watch stack.yml -o template.json
    stackplan watch stack.yml --debounce 1s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, args[0], wopts)
		},
	}

	cmd.Flags().DurationVar(&wopts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&wopts.outputFormat, "format", "f", "json", "Output format for the template: json or yaml")
	cmd.Flags().StringVarP(&wopts.outputFile, "output", "o", "", "Write the template to this file on each successful plan")

	return cmd
}

type watchOptions struct {
	debounce     time.Duration
	outputFormat string
	outputFile   string
}

// runWatch monitors the configuration and re-plans on changes.
func runWatch(cmd *cobra.Command, opts *globalOptions, path string, wopts watchOptions) error {
	configPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	watched := make(map[string]bool)
	watch := func() {
		for _, dir := range watchDirs(configPath) {
			if watched[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				log.Warn("Cannot watch directory", "dir", dir, "error", err)
				continue
			}
			watched[dir] = true
			log.Info("Watching", "dir", dir)
		}
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	replan := func() {
		rebuild(cmd, opts, configPath, wopts)
		// The configuration may name new directories.
		watch()
	}

	log.Info("Running initial plan", "config", configPath)
	replan()

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	log.Info("Watching for changes (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event, configPath, wopts.outputFile) {
				continue
			}

			// Debounce: reset timer on each change
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(wopts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			log.Info("Change detected, re-planning")
			replan()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("Watch error", "error", err)

		case <-cmd.Context().Done():
			return nil

		case <-sigChan:
			log.Info("Stopping watch")
			return nil
		}
	}
}

// watchDirs returns the directory of the configuration file and, when the
// file loads, the directories it names.
func watchDirs(configPath string) []string {
	dirs := []string{filepath.Dir(configPath)}
	cfg, err := config.Load(configPath)
	if err != nil {
		return dirs
	}
	for _, dir := range cfg.Dirs() {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		if dir != dirs[0] {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// relevant reports whether event should trigger a re-plan: a write,
// create, rename or remove of the configuration file or of any YAML file
// in a watched directory. The watch's own output is ignored.
func relevant(event fsnotify.Event, configPath, outputFile string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		name = event.Name
	}
	if outputFile != "" {
		if out, err := filepath.Abs(outputFile); err == nil && out == name {
			return false
		}
	}
	return name == configPath || config.IsConfigFile(name)
}

// rebuild plans the stack, reports plan check results and writes the
// template when an output file is set.
func rebuild(cmd *cobra.Command, opts *globalOptions, configPath string, wopts watchOptions) {
	cfg, p, err := opts.loadPlan(cmd.Context(), configPath)
	if err != nil {
		log.Error("Plan failed", "error", err)
		return
	}

	checked := validation.CheckPlan(p, cfg)
	for _, w := range checked.Warnings {
		log.Warn(w)
	}
	if !checked.Passed() {
		for _, msg := range checked.Messages() {
			log.Error("Plan check failed", "error", msg)
		}
		return
	}

	if wopts.outputFile == "" {
		log.Info("Plan ready", "resources", len(p.Nodes))
		return
	}

	tmpl, err := p.Template()
	if err != nil {
		log.Error("Build failed", "error", err)
		return
	}

	var data []byte
	switch wopts.outputFormat {
	case "json":
		data, err = template.ToJSON(tmpl)
	case "yaml":
		data, err = template.ToYAML(tmpl)
	default:
		err = fmt.Errorf("unknown format: %s", wopts.outputFormat)
	}
	if err != nil {
		log.Error("Output error", "error", err)
		return
	}

	if err := os.WriteFile(wopts.outputFile, data, 0644); err != nil {
		log.Error("Failed to write output", "error", err)
		return
	}
	log.Info("Build successful", "resources", len(p.Nodes), "output", wopts.outputFile)
}
