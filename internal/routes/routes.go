// Package routes loads the declarative proxy route table.
package routes

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hireportal/internal/apipaths"
	"github.com/hireportal/internal/normalize"
)

//go:embed routes.yaml
var defaultTable []byte

var ErrInvalidTable = errors.New("invalid route table")

var (
	templateParam = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	paramName     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Route maps one gateway endpoint onto a backend endpoint
type Route struct {
	Name       string `yaml:"name"`
	Method     string `yaml:"method"`
	Path       string `yaml:"path"`
	Backend    string `yaml:"backend"`
	Auth       bool   `yaml:"auth"`
	Normalize  string `yaml:"normalize"`
	StaleToken bool   `yaml:"stale_token"`
}

// Table is a validated set of routes
type Table struct {
	Routes []Route `yaml:"routes"`
}

// Default returns the route table compiled into the binary
func Default() (*Table, error) {
	return Load(defaultTable)
}

// LoadFile reads a route table from disk
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route table: %w", err)
	}
	return Load(data)
}

// Load parses and validates a YAML route table. Unknown keys are rejected.
func Load(data []byte) (*Table, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var table Table
	if err := dec.Decode(&table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	for i := range table.Routes {
		table.Routes[i].Method = strings.ToUpper(strings.TrimSpace(table.Routes[i].Method))
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

// Validate checks every route and the table as a whole
func (t *Table) Validate() error {
	if len(t.Routes) == 0 {
		return fmt.Errorf("%w: no routes", ErrInvalidTable)
	}

	seen := make(map[string]string)
	// gin rejects different wildcard names at the same position
	wildcards := make(map[string]string)

	for _, r := range t.Routes {
		if err := r.validate(); err != nil {
			return err
		}

		key := r.Method + " " + r.Path
		if other, ok := seen[key]; ok {
			return fmt.Errorf("%w: route %q duplicates %q (%s)", ErrInvalidTable, r.Name, other, key)
		}
		seen[key] = r.Name

		segments := strings.Split(strings.Trim(r.Path, "/"), "/")
		for i, seg := range segments {
			if !strings.HasPrefix(seg, ":") {
				continue
			}
			prefix := strings.Join(segments[:i], "/")
			if existing, ok := wildcards[prefix]; ok && existing != seg {
				return fmt.Errorf("%w: route %q uses %s where other routes use %s", ErrInvalidTable, r.Name, seg, existing)
			}
			wildcards[prefix] = seg
		}
	}
	return nil
}

func (r Route) validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: route %q: %s", ErrInvalidTable, r.Name, fmt.Sprintf(format, args...))
	}

	if r.Name == "" {
		return fmt.Errorf("%w: route for %s has no name", ErrInvalidTable, r.Path)
	}
	if !allowedMethods[r.Method] {
		return fail("unsupported method %q", r.Method)
	}
	if !strings.HasPrefix(r.Path, "/api/") {
		return fail("path %q must start with /api/", r.Path)
	}
	if strings.Contains(r.Path, "*") {
		return fail("catch-all paths are not supported")
	}
	for _, reserved := range apipaths.Reserved() {
		if r.Path == reserved || strings.HasPrefix(r.Path, reserved+"/") {
			return fail("path %q is served by the gateway itself", r.Path)
		}
	}
	if !strings.HasPrefix(r.Backend, "/") {
		return fail("backend %q must be an absolute path", r.Backend)
	}
	if r.Normalize != "" && !normalize.Known(r.Normalize) {
		return fail("unknown normalizer %q", r.Normalize)
	}

	params := r.PathParams()
	for _, p := range params {
		if !paramName.MatchString(p) {
			return fail("invalid path parameter %q", p)
		}
	}
	for _, m := range templateParam.FindAllStringSubmatch(r.Backend, -1) {
		if !contains(params, m[1]) {
			return fail("backend parameter {%s} has no matching :%s in path", m[1], m[1])
		}
	}
	return nil
}

// PathParams returns the names of the :params in the gateway path
func (r Route) PathParams() []string {
	var params []string
	for _, seg := range strings.Split(r.Path, "/") {
		if strings.HasPrefix(seg, ":") {
			params = append(params, seg[1:])
		}
	}
	return params
}

// BackendPath expands the backend template with path-escaped parameter values
func (r Route) BackendPath(params map[string]string) string {
	return templateParam.ReplaceAllStringFunc(r.Backend, func(m string) string {
		name := m[1 : len(m)-1]
		return url.PathEscape(params[name])
	})
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
