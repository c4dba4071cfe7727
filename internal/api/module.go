package api

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eugenenazirov/amplify-core-api/internal/validation"
)

// GlobalPrefix namespaces every route a module registers.
const GlobalPrefix = "/api"

// Dependencies are the shared services handed to each module when it is mounted.
type Dependencies struct {
	Validator *validation.Validator
	Logger    *zap.Logger
}

// Module is a self-contained group of routes. Mount receives a router already
// scoped to GlobalPrefix, so a module registering "/books" serves "/api/books".
type Module interface {
	Mount(r chi.Router, deps Dependencies)
}
