// Package router assembles the gin engine: middleware chain, versioned API groups and
// the unversioned health probe.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Route is one endpoint, relative to its group
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// Group is a set of routes under a common prefix of /api/{version}
type Group struct {
	Prefix     string
	Middleware []gin.HandlerFunc
	Routes     []Route
}

func get(p string, h gin.HandlerFunc) Route   { return Route{http.MethodGet, p, h} }
func post(p string, h gin.HandlerFunc) Route  { return Route{http.MethodPost, p, h} }
func patch(p string, h gin.HandlerFunc) Route { return Route{http.MethodPatch, p, h} }

type options struct {
	apiVersion string
}

// Option configures Register
type Option func(*options)

// WithAPIVersion sets the version segment of the prefix; the default is v1
func WithAPIVersion(version string) Option {
	return func(o *options) {
		o.apiVersion = version
	}
}

// Register mounts groups under /api/{version} and returns how many routes it added
func Register(engine *gin.Engine, groups []Group, opts ...Option) int {
	o := options{apiVersion: "v1"}
	for _, opt := range opts {
		opt(&o)
	}

	api := engine.Group("/api/" + o.apiVersion)
	n := 0
	for _, g := range groups {
		rg := api.Group(g.Prefix, g.Middleware...)
		for _, r := range g.Routes {
			rg.Handle(r.Method, r.Path, r.Handler)
			n++
		}
	}
	return n
}

// Paths lists "METHOD /prefix/path" for every route in groups, relative to the version prefix
func Paths(groups []Group) []string {
	var out []string
	for _, g := range groups {
		for _, r := range g.Routes {
			out = append(out, r.Method+" "+path.Join(g.Prefix, r.Path))
		}
	}
	return out
}
