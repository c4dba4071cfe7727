// Package application is the composition root. It wires configuration, the
// validation stage, the router with its modules and the HTTP server, and
// owns the NOT_STARTED -> LISTENING transition, keeping the main package
// focused on CLI parsing and orchestration.
package application
