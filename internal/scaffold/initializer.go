package scaffold

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/textiles-lab/jacquard/internal/config"
	"github.com/textiles-lab/jacquard/internal/jacquard"
	"github.com/textiles-lab/jacquard/internal/palette"
)

//go:embed templates/*
var templatesFS embed.FS

// CarriersFile is the standalone carrier mapping written next to the config.
const CarriersFile = "carriers.json"

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize writes jacquard.yml and carriers.json into dir, both holding
// the built-in carrier table and machine defaults. If force is true,
// existing files are replaced. Returns the paths written.
func Initialize(dir string, force bool, w io.Writer) ([]string, error) {
	if force {
		if err := handleForce(dir, w); err != nil {
			return nil, err
		}
	} else if err := CheckExisting(dir); err != nil {
		return nil, err
	}

	files, err := getTemplateFiles(dir)
	if err != nil {
		return nil, err
	}

	if err := writeFiles(files); err != nil {
		return nil, err
	}

	if err := validateCreatedFiles(dir); err != nil {
		return nil, err
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}

// handleForce removes existing files if --force was specified
func handleForce(dir string, w io.Writer) error {
	for _, name := range []string{config.DefaultPath, CarriersFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(w, "⚠️  Removing existing %s...\n", name)
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove %s: %w", name, err)
			}
		}
	}
	return nil
}

// getTemplateFiles renders the config template and the carrier mapping
func getTemplateFiles(dir string) ([]FileInfo, error) {
	records := palette.Default().Records()
	yml, err := renderConfig(records, jacquard.DefaultOptions())
	if err != nil {
		return nil, err
	}

	mapping, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode carrier mapping: %w", err)
	}
	mapping = append(mapping, '\n')

	return []FileInfo{
		{Path: filepath.Join(dir, config.DefaultPath), Content: yml, Permissions: 0644},
		{Path: filepath.Join(dir, CarriersFile), Content: mapping, Permissions: 0644},
	}, nil
}

// renderConfig fills the jacquard.yml template. The carriers block is
// produced by the YAML encoder so any label text is quoted correctly.
func renderConfig(records []palette.Record, opts jacquard.Options) ([]byte, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/jacquard.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read jacquard.yml template: %w", err)
	}

	carriers, err := carriersBlock(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode carriers: %w", err)
	}

	var yml bytes.Buffer
	err = tmpl.Execute(&yml, struct {
		Carriers string
		Options  jacquard.Options
	}{carriers, opts})
	if err != nil {
		return nil, fmt.Errorf("failed to render jacquard.yml: %w", err)
	}
	return yml.Bytes(), nil
}

// carriersBlock encodes records as a YAML sequence, one flow mapping per
// line, indented to sit under the carriers key.
func carriersBlock(records []palette.Record) (string, error) {
	var seq yaml.Node
	if err := seq.Encode(records); err != nil {
		return "", err
	}
	for _, item := range seq.Content {
		item.Style = yaml.FlowStyle
	}
	out, err := yaml.Marshal(&seq)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, line := range strings.SplitAfter(string(out), "\n") {
		if line != "" {
			sb.WriteString("  " + line)
		}
	}
	return sb.String(), nil
}

// writeFiles writes all template files to disk
func writeFiles(files []FileInfo) error {
	for _, file := range files {
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}

	return nil
}

// validateCreatedFiles loads the written files the way the compiler will
func validateCreatedFiles(dir string) error {
	if _, err := config.Load(filepath.Join(dir, config.DefaultPath)); err != nil {
		return fmt.Errorf("created %s is not valid: %w", config.DefaultPath, err)
	}
	if _, err := palette.LoadMapping(filepath.Join(dir, CarriersFile)); err != nil {
		return fmt.Errorf("created %s is not valid: %w", CarriersFile, err)
	}
	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess(w io.Writer, paths []string) {
	fmt.Fprintln(w, "\n✅ Successfully initialized jacquard settings!")
	fmt.Fprintln(w, "\nCreated:")
	for _, p := range paths {
		fmt.Fprintf(w, "  ✓ %s\n", p)
	}
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintln(w, "  1. Edit the carriers list to match the yarns on your machine")
	fmt.Fprintln(w, "  2. Compile a pattern: jacquard compile front.png back.png -o tube.k")
}
