// Package roles loads the ordered participant definitions of an interview
// and renders their instructions for a given subject and round count.
package roles

import (
	"bytes"
	_ "embed"
	"os"
	"regexp"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Kind string

const (
	KindAssistant Kind = "assistant"
	KindHuman     Kind = "human"
)

//go:embed default_roles.yaml
var defaultRoles []byte

// Names end up as frame tags and as chat-completions message names.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

var validate = validator.New()

type Role struct {
	Name        string `yaml:"name" validate:"required"`
	Kind        Kind   `yaml:"kind" validate:"oneof=assistant human"`
	Description string `yaml:"description"`
	System      string `yaml:"system"`
}

type Catalog struct {
	Task          string `yaml:"task" validate:"required"`
	Termination   string `yaml:"termination" validate:"required"`
	TurnsPerRound int    `yaml:"turns_per_round" validate:"min=1"`
	Participants  []Role `yaml:"participants" validate:"min=1,dive"`

	templates map[string]*template.Template
}

type Params struct {
	Subject string
	Rounds  int
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultRoles)
}

// Load reads path, or falls back to the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read roles file %s", path)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	c := &Catalog{TurnsPerRound: 5}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, errors.Wrap(err, "decode roles")
	}
	if err := validate.Struct(c); err != nil {
		return nil, errors.Wrap(err, "invalid roles")
	}

	seen := make(map[string]bool, len(c.Participants))
	c.templates = make(map[string]*template.Template)
	for _, r := range c.Participants {
		if !namePattern.MatchString(r.Name) || strings.HasPrefix(r.Name, "SYSTEM_") {
			return nil, errors.Errorf("invalid participant name %q", r.Name)
		}
		if seen[r.Name] {
			return nil, errors.Errorf("duplicate participant %q", r.Name)
		}
		seen[r.Name] = true

		for field, text := range map[string]string{"description": r.Description, "system": r.System} {
			tmpl, err := template.New(r.Name + "." + field).Option("missingkey=error").Parse(text)
			if err != nil {
				return nil, errors.Wrapf(err, "participant %s %s", r.Name, field)
			}
			c.templates[r.Name+"."+field] = tmpl
		}
	}
	return c, nil
}

// Render returns the participants in turn order with their templates executed.
func (c *Catalog) Render(p Params) ([]Role, error) {
	out := make([]Role, 0, len(c.Participants))
	for _, r := range c.Participants {
		desc, err := c.execute(r.Name+".description", p)
		if err != nil {
			return nil, err
		}
		system, err := c.execute(r.Name+".system", p)
		if err != nil {
			return nil, err
		}
		out = append(out, Role{
			Name:        r.Name,
			Kind:        r.Kind,
			Description: desc,
			System:      strings.TrimSpace(system),
		})
	}
	return out, nil
}

func (c *Catalog) MaxTurns(rounds int) int {
	return rounds * c.TurnsPerRound
}

func (c *Catalog) execute(key string, p Params) (string, error) {
	var buf bytes.Buffer
	if err := c.templates[key].Execute(&buf, p); err != nil {
		return "", errors.Wrapf(err, "render %s", key)
	}
	return buf.String(), nil
}
