package interaction

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidInteraction is returned for interactions that can never match
// or never respond.
var ErrInvalidInteraction = errors.New("invalid interaction")

// Load reads an interactions file.
func Load(path string) ([]Interaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read interactions file: %w", err)
	}
	interactions, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return interactions, nil
}

// Parse decodes and validates interactions from YAML.
func Parse(data []byte) ([]Interaction, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse interactions: %w", err)
	}
	for i := range f.Interactions {
		if err := f.Interactions[i].Validate(); err != nil {
			return nil, fmt.Errorf("interaction %d: %w", i, err)
		}
	}
	return f.Interactions, nil
}

// Validate checks that the interaction is usable.
func (in *Interaction) Validate() error {
	if in.Request.Path != "" && !strings.HasPrefix(in.Request.Path, "/") {
		return fmt.Errorf("%w: request path %q must start with /", ErrInvalidInteraction, in.Request.Path)
	}
	if s := in.Response.Status; s != 0 && (s < 200 || s > 999) {
		return fmt.Errorf("%w: response status %d out of range", ErrInvalidInteraction, s)
	}
	return nil
}
