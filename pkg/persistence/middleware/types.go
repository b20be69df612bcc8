// Package middleware decorates document stores with encryption and redaction.
package middleware

import "github.com/aretw0/quire/pkg/ports"

// Middleware allows wrapping a DocumentStore to add behavior.
type Middleware func(ports.DocumentStore) ports.DocumentStore

// Wrap applies mws to store; the first one is outermost.
func Wrap(store ports.DocumentStore, mws ...Middleware) ports.DocumentStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
