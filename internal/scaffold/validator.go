package scaffold

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/canboard/internal/config"
	"github.com/dyluth/canboard/internal/instance"
)

// CheckExisting returns an error if dir already has a canboard.yml.
func CheckExisting(dir string) error {
	path := filepath.Join(dir, config.DefaultPath)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("already initialized\n\nFound existing: %s\n\nUse 'canboard init --force' to overwrite it", path)
	}
	return nil
}

// ValidateInstance checks a name before it is written into the template.
func ValidateInstance(name string) error {
	if name == "" {
		return nil
	}
	return instance.ValidateName(name)
}

// setInstance replaces the instance line of the template.
func setInstance(content []byte, name string) []byte {
	return bytes.Replace(content, []byte("\ninstance: default\n"), []byte("\ninstance: "+name+"\n"), 1)
}
