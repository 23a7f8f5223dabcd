package mockserver

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/kbukum/netclient/target"
	"github.com/kbukum/netclient/validation"
)

// Route maps one method and path to a canned response. Path uses gin
// syntax, so ":id" and "*rest" segments match any value.
type Route struct {
	Method string `yaml:"method"`
	Path   string `yaml:"path" validate:"required,startswith=/"`
	// Fixture names the payload served from the fixture source.
	Fixture string `yaml:"fixture"`
	// Body is served verbatim when Fixture is empty.
	Body    string            `yaml:"body"`
	Status  int               `yaml:"status" validate:"omitempty,gte=100,lte=999"`
	Headers map[string]string `yaml:"headers"`
	// Delay is applied before responding.
	Delay time.Duration `yaml:"delay" validate:"gte=0"`
	// Set overwrites payload fields by JSON path before responding. A value
	// of ":name" is replaced with the path parameter name; other values are
	// written as JSON when they parse as JSON and as strings otherwise.
	Set map[string]string `yaml:"set"`
}

// method returns the normalized method, GET when unset.
func (r Route) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

func (r Route) status() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}

// Validate checks a single route.
func (r Route) Validate() error {
	v := validation.New().Merge("", validation.Struct(r))
	_, err := target.ParseMethod(r.method())
	v.Custom(err == nil, "method", "is not supported")
	return v.Err()
}

// apply writes the route's Set overrides into body, in path order.
func (r Route) apply(body []byte, param func(string) string) ([]byte, error) {
	paths := make([]string, 0, len(r.Set))
	for p := range r.Set {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var err error
	for _, p := range paths {
		v := r.Set[p]
		switch {
		case strings.HasPrefix(v, ":"):
			body, err = sjson.SetBytes(body, p, param(v[1:]))
		case gjson.Valid(v):
			body, err = sjson.SetRawBytes(body, p, []byte(v))
		default:
			body, err = sjson.SetBytes(body, p, v)
		}
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", p, err)
		}
	}
	return body, nil
}

func (r Route) String() string { return r.method() + " " + r.Path }

type routesFile struct {
	Routes []Route `yaml:"routes"`
}

// ParseRoutes decodes a YAML route table:
//
//	routes:
//	  - method: GET
//	    path: /users/:id
//	    fixture: user_ok
//	    set:
//	      data.user.id: ":id"
//	  - path: /health
//	    body: '{"ok":true}'
func ParseRoutes(data []byte) ([]Route, error) {
	var f routesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("mock: parse routes: %w", err)
	}
	if len(f.Routes) == 0 {
		return nil, errors.New("mock: route file defines no routes")
	}
	for i, r := range f.Routes {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("mock: route %d (%s): %w", i, r, err)
		}
	}
	return f.Routes, nil
}

// LoadRoutes reads and parses a route file.
func LoadRoutes(fs afero.Fs, path string) ([]Route, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("mock: read routes: %w", err)
	}
	return ParseRoutes(data)
}
