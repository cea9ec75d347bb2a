package routes

import "net/http"

// Route binds an HTTP method and pattern, relative to its group prefix, to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}
