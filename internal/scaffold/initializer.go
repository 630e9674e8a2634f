// Package scaffold writes a starter canboard.yml.
package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/canboard/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize writes canboard.yml into dir, setting its instance name when
// instanceName is not empty. If force is true an existing file is replaced.
// It returns the paths written.
func Initialize(dir, instanceName string, force bool) ([]string, error) {
	if !force {
		if err := CheckExisting(dir); err != nil {
			return nil, err
		}
	}

	files, err := getTemplateFiles(dir, instanceName)
	if err != nil {
		return nil, err
	}
	if err := writeFiles(files); err != nil {
		return nil, err
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
		if _, err := config.Load(f.Path); err != nil {
			return nil, fmt.Errorf("created %s is invalid: %w", f.Path, err)
		}
	}
	return paths, nil
}

// getTemplateFiles reads and processes all template files
func getTemplateFiles(dir, instanceName string) ([]FileInfo, error) {
	content, err := templatesFS.ReadFile("templates/canboard.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read canboard.yml template: %w", err)
	}
	if instanceName != "" {
		content = setInstance(content, instanceName)
	}

	return []FileInfo{{
		Path:        filepath.Join(dir, config.DefaultPath),
		Content:     content,
		Permissions: 0644,
	}}, nil
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
