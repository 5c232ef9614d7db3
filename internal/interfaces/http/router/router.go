package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Resource is one read-only collection of the directory API, e.g. /users.
// Every route answers GET and HEAD.
type Resource struct {
	prefix string
	routes []route
}

type route struct {
	path     string
	handlers []gin.HandlerFunc
}

func NewResource(prefix string) *Resource {
	return &Resource{prefix: prefix}
}

// GET adds a route relative to the resource prefix.
func (r *Resource) GET(path string, handlers ...gin.HandlerFunc) *Resource {
	r.routes = append(r.routes, route{path: path, handlers: handlers})
	return r
}

func (r *Resource) mount(rg *gin.RouterGroup) {
	g := rg.Group(r.prefix)
	for _, rt := range r.routes {
		g.Handle(http.MethodGet, rt.path, rt.handlers...)
		g.Handle(http.MethodHead, rt.path, rt.handlers...)
	}
}

// Version groups resources under /api/{name}. Its middleware runs before
// every handler of the version, which is where v1 and v2 differ in how
// they resolve the caller's privacy level.
type Version struct {
	name       string
	middleware []gin.HandlerFunc
	resources  []*Resource
}

func NewVersion(name string, middleware ...gin.HandlerFunc) *Version {
	return &Version{name: name, middleware: middleware}
}

func (v *Version) Add(resources ...*Resource) *Version {
	v.resources = append(v.resources, resources...)
	return v
}

// Mount registers the version on engine.
func (v *Version) Mount(engine *gin.Engine) {
	api := engine.Group("/api/"+v.name, v.middleware...)
	for _, r := range v.resources {
		r.mount(api)
	}
}
