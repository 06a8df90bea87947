package api

import (
	"context"
	"log/slog"
	"strings"
)

// Request contains route parameters and additional args from the command.
type Request struct {
	Ctx     context.Context
	Params  map[string]string
	Payload string
}

// Response holds the JSON string to return to the client.
type Response struct {
	JSON string
}

// HandlerFunc processes a request and populates the response.
// Returns an error on failure. The logger provided is a connection-scoped logger
// enriched with remote address metadata by the API server.
type HandlerFunc func(req *Request, res *Response, logger *slog.Logger) error

// Router implements simple path pattern matching with placeholders in {name}.
type Router struct {
	routes []routeEntry
}

type routeEntry struct {
	parts []string
	// names keeps placeholder names in their registered case.
	names   map[int]string
	handler HandlerFunc
}

// NewRouter returns a new Router instance.
func NewRouter() *Router { return &Router{} }

// Register registers a handler for a path pattern like "session/{id}/role/{role}".
func (r *Router) Register(pattern string, handler HandlerFunc) {
	orig := strings.Split(pattern, "/")
	e := routeEntry{parts: strings.Split(strings.ToLower(pattern), "/"), names: map[int]string{}, handler: handler}
	for i, p := range orig {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			e.names[i] = p[1 : len(p)-1]
		}
	}
	r.routes = append(r.routes, e)
}

// Match returns the HandlerFunc and params if the given path matches any
// registered pattern. Returns nil if none match.
func (r *Router) Match(path string) (HandlerFunc, map[string]string) {
	parts := strings.Split(strings.ToLower(path), "/")
	for _, rt := range r.routes {
		if len(rt.parts) != len(parts) {
			continue
		}
		params := map[string]string{}
		ok := true
		for i := range parts {
			if name, isParam := rt.names[i]; isParam {
				params[name] = parts[i]
				continue
			}
			if rt.parts[i] != parts[i] {
				ok = false
				break
			}
		}
		if ok {
			return rt.handler, params
		}
	}
	return nil, nil
}
