package camels

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v2"
)

// schemeFile is the on-disk form of a Scheme, keyed by variable
type schemeFile struct {
	Name       string                    `json:"name" yaml:"name" toml:"name"`
	Thresholds map[string]thresholdEntry `json:"thresholds" yaml:"thresholds" toml:"thresholds"`
	Weights    map[string]float64        `json:"weights" yaml:"weights" toml:"weights"`
}

type thresholdEntry struct {
	HigherIsBetter bool      `json:"higher_is_better" yaml:"higher_is_better" toml:"higher_is_better"`
	Bounds         []float64 `json:"bounds" yaml:"bounds" toml:"bounds"`
	Method         string    `json:"method,omitempty" yaml:"method,omitempty" toml:"method,omitempty"`
}

func (s Scheme) toFile() schemeFile {
	f := schemeFile{
		Name:       s.Name,
		Thresholds: make(map[string]thresholdEntry, NumVariables),
		Weights:    make(map[string]float64, NumVariables),
	}
	for _, v := range Variables() {
		t := s.Thresholds[v]
		f.Thresholds[v.Key()] = thresholdEntry{
			HigherIsBetter: t.HigherIsBetter,
			Bounds:         append([]float64(nil), t.Bounds[:]...),
			Method:         string(t.Method),
		}
		f.Weights[v.Key()] = s.Weights[v]
	}
	return f
}

// toScheme requires an entry for every variable in both maps
func (f schemeFile) toScheme() (Scheme, error) {
	s := Scheme{Name: f.Name}
	seenT := make(map[Variable]bool, NumVariables)
	seenW := make(map[Variable]bool, NumVariables)

	for key, entry := range f.Thresholds {
		v, err := ParseVariable(key)
		if err != nil {
			return Scheme{}, fmt.Errorf("%w: thresholds: %w", ErrInvalidScheme, err)
		}
		if seenT[v] {
			return Scheme{}, fmt.Errorf("%w: duplicate threshold for %s", ErrInvalidScheme, v.Key())
		}
		if len(entry.Bounds) != 4 {
			return Scheme{}, fmt.Errorf("%w: %w", ErrInvalidScheme, &ValidationError{
				Field:   "thresholds." + v.Key(),
				Message: fmt.Sprintf("expected 4 bounds, got %d", len(entry.Bounds)),
				Value:   entry.Bounds,
			})
		}
		t := Threshold{HigherIsBetter: entry.HigherIsBetter, Method: BinMethod(entry.Method)}
		copy(t.Bounds[:], entry.Bounds)
		if t.Method == "" {
			t.Method = BinExpert
		}
		s.Thresholds[v] = t
		seenT[v] = true
	}

	for key, w := range f.Weights {
		v, err := ParseVariable(key)
		if err != nil {
			return Scheme{}, fmt.Errorf("%w: weights: %w", ErrInvalidScheme, err)
		}
		if seenW[v] {
			return Scheme{}, fmt.Errorf("%w: duplicate weight for %s", ErrInvalidScheme, v.Key())
		}
		s.Weights[v] = w
		seenW[v] = true
	}

	for _, v := range Variables() {
		if !seenT[v] {
			return Scheme{}, fmt.Errorf("%w: %w", ErrInvalidScheme, &ValidationError{
				Field: "thresholds." + v.Key(), Message: "missing threshold",
			})
		}
		if !seenW[v] {
			return Scheme{}, fmt.Errorf("%w: %w", ErrInvalidScheme, &ValidationError{
				Field: "weights." + v.Key(), Message: "missing weight",
			})
		}
	}
	return s, nil
}

// LoadScheme reads and validates a scheme file. The format follows the
// extension: .yaml/.yml, .toml or .json.
func LoadScheme(path string) (Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scheme{}, fmt.Errorf("read scheme file: %w", err)
	}
	s, err := ParseScheme(data, filepath.Ext(path))
	if err != nil {
		return Scheme{}, fmt.Errorf("parse scheme %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// ParseScheme decodes and validates a scheme in the format named by ext
func ParseScheme(data []byte, ext string) (Scheme, error) {
	var f schemeFile
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Scheme{}, fmt.Errorf("decode yaml: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return Scheme{}, fmt.Errorf("decode toml: %w", err)
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return Scheme{}, fmt.Errorf("decode json: %w", err)
		}
	default:
		return Scheme{}, fmt.Errorf("unsupported scheme format %q", ext)
	}

	s, err := f.toScheme()
	if err != nil {
		return Scheme{}, err
	}
	if err := s.Validate(); err != nil {
		return Scheme{}, err
	}
	return s, nil
}

// EncodeScheme writes the scheme in the format named by ext
func EncodeScheme(s Scheme, ext string) ([]byte, error) {
	f := s.toFile()
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		return yaml.Marshal(f)
	case "toml":
		return toml.Marshal(f)
	case "json":
		return json.MarshalIndent(f, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported scheme format %q", ext)
	}
}
