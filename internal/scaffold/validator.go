package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/textiles-lab/jacquard/internal/config"
)

// CheckExisting checks if jacquard.yml or carriers.json already exist in dir
// Returns an error if they do, nil otherwise
func CheckExisting(dir string) error {
	var existingFiles []string
	for _, name := range []string{config.DefaultPath, CarriersFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			existingFiles = append(existingFiles, name)
		}
	}

	if len(existingFiles) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("settings already initialized\n\nFound existing")
	if len(existingFiles) == 1 {
		fmt.Fprintf(&sb, ": %s\n", existingFiles[0])
	} else {
		sb.WriteString(" files:\n")
		for _, file := range existingFiles {
			fmt.Fprintf(&sb, "  - %s\n", file)
		}
	}
	sb.WriteString("\nUse 'jacquard init --force' to reinitialize (this will overwrite existing configuration)")

	return fmt.Errorf("%s", sb.String())
}
