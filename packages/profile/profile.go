// Package profile loads request definitions from YAML files and turns
// them into configured resources. Values may reference environment
// variables as ${NAME}; unset variables resolve to the empty string.
package profile

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rajeshsegu/resource-go/packages/dispatch"
	"github.com/rajeshsegu/resource-go/packages/resource"
)

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// BasicAuth holds basic authentication credentials.
type BasicAuth struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Profile is one request definition.
type Profile struct {
	Method   string            `yaml:"method"`
	URL      string            `yaml:"url"`
	Params   map[string]string `yaml:"params"`
	Form     map[string]string `yaml:"form"`
	Headers  map[string]string `yaml:"headers"`
	Images   map[string]string `yaml:"images"` // field name -> file path
	Basic    *BasicAuth        `yaml:"basic"`
	Timeout  string            `yaml:"timeout"`  // Go duration string
	Priority string            `yaml:"priority"` // low, normal, high
}

// Load reads a profile from path and interpolates ${VAR} references in
// its string values.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}

	p.interpolate()

	if p.URL == "" {
		return nil, fmt.Errorf("profile %s has no url", path)
	}
	return &p, nil
}

func (p *Profile) interpolate() {
	p.URL = resolve(p.URL)
	resolveMap(p.Params)
	resolveMap(p.Form)
	resolveMap(p.Headers)
	resolveMap(p.Images)
	if p.Basic != nil {
		p.Basic.User = resolve(p.Basic.User)
		p.Basic.Password = resolve(p.Basic.Password)
	}
}

// resolve replaces each ${NAME} with the value of the NAME environment
// variable.
func resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		name := match[2 : len(match)-1]
		return os.Getenv(name)
	})
}

func resolveMap(m map[string]string) {
	for k, v := range m {
		m[k] = resolve(v)
	}
}

// Build produces a configured, un-sent resource from the profile.
// Attachment files are read here, so a missing file is a build error
// rather than a dispatch failure.
func (p *Profile) Build() (*resource.Resource, error) {
	factory, err := factoryFor(p.Method)
	if err != nil {
		return nil, err
	}
	r := factory(p.URL)

	r.Params(p.Params)
	for name, value := range p.Form {
		r.Form(name, value)
	}
	for name, value := range p.Headers {
		r.Header(name, value)
	}
	for field, path := range p.Images {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", path, err)
		}
		r.Image(data, field)
	}

	if p.Basic != nil {
		r.Basic(p.Basic.User, p.Basic.Password)
	}

	if p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse timeout: %w", err)
		}
		r.Timeout(d)
	}

	if p.Priority != "" {
		priority, err := ParsePriority(p.Priority)
		if err != nil {
			return nil, err
		}
		r.Priority(priority)
	}

	return r, nil
}

func factoryFor(method string) (func(string) *resource.Resource, error) {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case "GET", "":
		return resource.Get, nil
	case "POST":
		return resource.Post, nil
	case "PUT":
		return resource.Put, nil
	case "DELETE":
		return resource.Delete, nil
	case "HEAD":
		return resource.Head, nil
	default:
		return nil, fmt.Errorf("unsupported method: %s", method)
	}
}

// ParsePriority maps a profile priority name to a queue priority.
func ParsePriority(name string) (dispatch.Priority, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "low":
		return dispatch.PriorityLow, nil
	case "normal", "":
		return dispatch.PriorityNormal, nil
	case "high":
		return dispatch.PriorityHigh, nil
	default:
		return dispatch.PriorityNormal, fmt.Errorf("unknown priority: %s", name)
	}
}
