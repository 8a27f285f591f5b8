// package server contains middleware & handlers for the linkage web service
package server

import (
	"net/http"
)

// Middleware wraps an http.Handler with behavior applied to every request,
// such as the request logging the serve command installs.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the linkage service.
// Implementations handle specific endpoints (health, sweeps, linkage lookups).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router registers handlers, stacks middleware, and serves the result.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}
