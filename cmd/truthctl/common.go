package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ritamzico/truth"
	"github.com/ritamzico/truth/internal/config"
	"github.com/ritamzico/truth/internal/uri"
	"github.com/ritamzico/truth/internal/urireader"
)

// newProgram builds a Program rooted at the directory containing path, so
// relative file:// references in the opened document resolve next to it.
func newProgram(path string) (*truth.Program, error) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	root := filepath.Dir(path)
	if root == "" {
		root = "."
	}
	cfg.URIRoot = root

	return truth.New(cfg, logger, urireader.NewFileReader(root)), nil
}

// openFile reads path, registers it as a Document on p, and assigns it the
// self URI its own sibling documents would use to reference it.
func openFile(p *truth.Program, path string) (*truth.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc := p.OpenDocumentFromText(string(data))
	selfURI := uri.Uri{Protocol: uri.File, Path: []string{filepath.Base(path)}}
	if err := p.UpdateDocumentURI(doc, selfURI); err != nil {
		return nil, fmt.Errorf("assigning self URI to %s: %w", path, err)
	}
	return doc, nil
}
