package http

import (
	"github.com/wx-callback-gateway/internal/infrastructure/memstore"
)

// Deps holds the infrastructure dependencies for the router. The credential
// store is the only stateful component; the services built over it are
// wired inside NewRouter.
type Deps struct {
	Store *memstore.Store
}
