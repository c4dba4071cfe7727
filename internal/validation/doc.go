// Package validation is the request validation stage shared by every route.
// It decodes JSON bodies, query strings and path parameters into declared
// request structs, strips or rejects undeclared fields, optionally coerces
// text into the declared types and enforces `validate` tag constraints.
package validation
