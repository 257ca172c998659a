// Package config reads and writes wall configurations as YAML documents.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/drummonds/artwall/internal/wall"
	"gopkg.in/yaml.v3"
)

// Version is written into every document.
const Version = "1.0"

// DefaultName is used when a configuration is saved without a name.
const DefaultName = "Untitled"

var ErrInvalidConfigFormat = errors.New("invalid config format")

type Meta struct {
	Name    string    `yaml:"name" json:"name"`
	Created time.Time `yaml:"created" json:"created"`
	Version string    `yaml:"version" json:"version"`
}

// Document is one saved wall with its frames.
type Document struct {
	Meta   Meta         `yaml:"meta" json:"meta"`
	Wall   wall.Wall    `yaml:"wall" json:"wall"`
	Frames []wall.Frame `yaml:"frames" json:"frames"`
}

// New builds a document holding the real image references.
func New(name string, w wall.Wall, frames []wall.Frame, now time.Time) Document {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	out := make([]wall.Frame, len(frames))
	copy(out, frames)
	return Document{
		Meta:   Meta{Name: name, Created: now.UTC(), Version: Version},
		Wall:   w,
		Frames: out,
	}
}

// Portable returns a copy with embedded image data replaced by
// wall.EmbeddedPlaceholder, keeping remote references as they are.
func (d Document) Portable() Document {
	d.Wall.BackgroundImage = placeholder(d.Wall.BackgroundImage)
	frames := make([]wall.Frame, len(d.Frames))
	for i, f := range d.Frames {
		f.Painting = placeholder(f.Painting)
		frames[i] = f
	}
	d.Frames = frames
	return d
}

func placeholder(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		return wall.EmbeddedPlaceholder
	}
	return ref
}

// Marshal encodes the portable form of d.
func Marshal(d Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the portable form of d as YAML.
func Encode(w io.Writer, d Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d.Portable()); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

// Decode reads a YAML document from r.
func Decode(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}
	return Parse(data)
}

// Parse decodes a YAML document. Both the wall and frames keys must be
// present and not null; meta is optional.
func Parse(data []byte) (Document, error) {
	var keys map[string]yaml.Node
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidConfigFormat, err)
	}
	for _, k := range []string{"wall", "frames"} {
		n, ok := keys[k]
		if !ok {
			return Document{}, fmt.Errorf("%w: missing %q", ErrInvalidConfigFormat, k)
		}
		if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
			return Document{}, fmt.Errorf("%w: %q is empty", ErrInvalidConfigFormat, k)
		}
	}
	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidConfigFormat, err)
	}
	if d.Meta.Version == "" {
		d.Meta.Version = Version
	}
	return d, nil
}

// Scene is the part of a scene a document is loaded into.
type Scene interface {
	Load(w wall.Wall, frames []wall.Frame) error
}

// Apply parses data and loads it into s. Nothing changes on error.
func Apply(s Scene, data []byte) (Document, error) {
	d, err := Parse(data)
	if err != nil {
		return Document{}, err
	}
	if err := s.Load(d.Wall, d.Frames); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidConfigFormat, err)
	}
	return d, nil
}
