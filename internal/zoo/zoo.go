// internal/zoo/zoo.go

// Package zoo is the model repository: it resolves a model name to a ready
// Predictor, either a built-in PWM model or a remote inference endpoint
// declared in a YAML catalog.
package zoo

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mavekit/internal/alphabet"
	"mavekit/internal/predictor"
)

// ErrUnknownModel is returned for names missing from the catalog.
var ErrUnknownModel = errors.New("zoo: unknown model")

// Model kinds.
const (
	KindPWM  = "pwm"
	KindHTTP = "http"
)

// DefaultModel is the model used when none is named.
const DefaultModel = "BPNet-OSKN-pwm"

// Task names one model output. Consensus is only used by PWM models.
type Task struct {
	Name      string `yaml:"name"`
	Consensus string `yaml:"consensus,omitempty"`
}

// Entry is one catalog model.
type Entry struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Description string `yaml:"description,omitempty"`
	Alphabet    string `yaml:"alphabet,omitempty"`
	Reduction   string `yaml:"reduction,omitempty"`
	Tasks       []Task `yaml:"tasks"`

	// http only
	URL       string `yaml:"url,omitempty"`
	Model     string `yaml:"model,omitempty"`
	InputName string `yaml:"input,omitempty"`
	Timeout   string `yaml:"timeout,omitempty"`
}

// TaskNames lists the entry's output names in order.
func (e Entry) TaskNames() []string {
	out := make([]string, len(e.Tasks))
	for i, t := range e.Tasks {
		out[i] = t.Name
	}
	return out
}

func (e Entry) alphabet() (alphabet.Alphabet, error) {
	if e.Alphabet == "" {
		return alphabet.DNA, nil
	}
	return alphabet.Parse(e.Alphabet)
}

// Open builds the predictor described by e, covering all of its tasks.
func (e Entry) Open() (predictor.Predictor, error) {
	red, err := predictor.ParseReduction(e.Reduction)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", e.Name, err)
	}
	if len(e.Tasks) == 0 {
		return nil, fmt.Errorf("model %s: no tasks", e.Name)
	}
	switch e.Kind {
	case KindPWM:
		alpha, err := e.alphabet()
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", e.Name, err)
		}
		motifs := make([]predictor.Motif, 0, len(e.Tasks))
		for _, t := range e.Tasks {
			m, err := predictor.NewMotif(alpha, t.Name, t.Consensus)
			if err != nil {
				return nil, fmt.Errorf("model %s: %w", e.Name, err)
			}
			motifs = append(motifs, m)
		}
		return predictor.NewPWM(alpha, motifs, red)
	case KindHTTP:
		var timeout time.Duration
		if e.Timeout != "" {
			if timeout, err = time.ParseDuration(e.Timeout); err != nil {
				return nil, fmt.Errorf("model %s: timeout: %w", e.Name, err)
			}
		}
		remote := e.Model
		if remote == "" {
			remote = e.Name
		}
		return predictor.NewHTTPClient(predictor.HTTPConfig{
			URL:       e.URL,
			Model:     remote,
			Tasks:     e.TaskNames(),
			Reduction: red,
			InputName: e.InputName,
			Timeout:   timeout,
		})
	}
	return nil, fmt.Errorf("model %s: unknown kind %q (want pwm|http)", e.Name, e.Kind)
}

// Catalog is a name-indexed set of entries.
type Catalog struct {
	entries map[string]Entry
}

type catalogFile struct {
	Models []Entry `yaml:"models"`
}

// Builtin returns the catalog compiled into the binary.
func Builtin() *Catalog {
	c := &Catalog{entries: map[string]Entry{}}
	c.Add(Entry{
		Name:        DefaultModel,
		Kind:        KindPWM,
		Description: "consensus-PWM stand-in for the BPNet Oct4/Sox2/Klf4/Nanog model",
		Reduction:   string(predictor.ReduceMax),
		Tasks: []Task{
			{Name: "Oct4", Consensus: "ATGCAAAT"},
			{Name: "Sox2", Consensus: "ACAAAGG"},
			{Name: "Klf4", Consensus: "GGGTGTGG"},
			{Name: "Nanog", Consensus: "AGCCATCAA"},
		},
	})
	return c
}

// Load returns the built-in catalog overlaid with the entries of path.
// An empty path returns the built-ins.
func Load(path string) (*Catalog, error) {
	c := Builtin()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for i, e := range f.Models {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog %s: model #%d has no name", path, i+1)
		}
		c.Add(e)
	}
	return c, nil
}

// Add inserts or replaces an entry.
func (c *Catalog) Add(e Entry) { c.entries[e.Name] = e }

// Names returns the model names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.entries))
	for n := range c.entries {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Entries returns the entries sorted by name.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, n := range c.Names() {
		out = append(out, c.entries[n])
	}
	return out
}

func (c *Catalog) Entry(name string) (Entry, error) {
	e, ok := c.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownModel, name, strings.Join(c.Names(), ", "))
	}
	return e, nil
}

// Get opens model name and narrows it to task (all tasks when empty).
func (c *Catalog) Get(name, task string) (predictor.Predictor, error) {
	e, err := c.Entry(name)
	if err != nil {
		return nil, err
	}
	p, err := e.Open()
	if err != nil {
		return nil, err
	}
	return predictor.Select(p, task)
}

// WriteFile saves the catalog as YAML.
func (c *Catalog) WriteFile(path string) error {
	raw, err := yaml.Marshal(catalogFile{Models: c.Entries()})
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// SetDefaultTimeout fills the timeout of http entries that declare none.
func (c *Catalog) SetDefaultTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	for n, e := range c.entries {
		if e.Kind == KindHTTP && e.Timeout == "" {
			e.Timeout = d.String()
			c.entries[n] = e
		}
	}
}
