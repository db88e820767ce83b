package plans

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source loads the plan catalog.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// InMemSource serves a fixed catalog.
type InMemSource struct {
	catalog *Catalog
}

// NewInMemSource returns a Source that always yields catalog.
func NewInMemSource(catalog *Catalog) *InMemSource {
	if catalog == nil {
		panic("plans: catalog is required")
	}
	return &InMemSource{catalog: catalog}
}

func (s *InMemSource) Load(_ context.Context) (*Catalog, error) {
	return s.catalog, nil
}

// YAMLSource reads the catalog from a YAML document on disk.
type YAMLSource struct {
	path string
}

func NewYAMLSource(path string) *YAMLSource {
	return &YAMLSource{path: path}
}

func (s *YAMLSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes and validates a catalog document.
func ParseYAML(data []byte) (*Catalog, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	c, err := doc.Build()
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	return c, nil
}

// FallbackSource tries primary and uses fallback when it fails.
type FallbackSource struct {
	primary  Source
	fallback Source
	onError  func(error)
}

// NewFallbackSource combines two sources. onError, if set, receives the
// primary failure.
func NewFallbackSource(primary, fallback Source, onError func(error)) *FallbackSource {
	if primary == nil || fallback == nil {
		panic("plans: both sources are required")
	}
	return &FallbackSource{primary: primary, fallback: fallback, onError: onError}
}

func (s *FallbackSource) Load(ctx context.Context) (*Catalog, error) {
	c, err := s.primary.Load(ctx)
	if err == nil {
		return c, nil
	}
	if s.onError != nil {
		s.onError(err)
	}
	c, ferr := s.fallback.Load(ctx)
	if ferr != nil {
		return nil, fmt.Errorf("%w: primary: %w, fallback: %w", ErrFailedToLoadPlans, err, ferr)
	}
	return c, nil
}
