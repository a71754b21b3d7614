// Package trust maintains the verifier's registry of credential issuers it
// accepts, keyed by issuer name.
package trust

import (
	"crypto/rsa"
	"sort"
	"strings"
	"sync"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/signing"
	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// Registry maps issuer names to their public keys. Adding an issuer that is
// already registered replaces its key (upsert), so rotating an issuer's key
// is a plain re-add.
type Registry struct {
	mu      sync.RWMutex
	issuers map[string]*rsa.PublicKey
}

func NewRegistry() *Registry {
	return &Registry{issuers: make(map[string]*rsa.PublicKey)}
}

// NewRegistryFromFiles loads a registry from a name to key-path map. A key
// that fails to load fails the whole construction; a verifier with silently
// missing trust anchors is worse than one that refuses to start.
func NewRegistryFromFiles(keyPaths map[string]string) (*Registry, error) {
	r := NewRegistry()
	for name, path := range keyPaths {
		pub, err := signing.LoadPublicKey(path)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "could not load public key for issuer "+name)
		}
		if err := r.Add(name, pub); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers or replaces an issuer's public key.
func (r *Registry) Add(name string, pub *rsa.PublicKey) error {
	if strings.TrimSpace(name) == "" {
		return dErrors.New(dErrors.CodeValidation, "issuer name is required")
	}
	if pub == nil {
		return dErrors.New(dErrors.CodeValidation, "issuer public key is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issuers[name] = pub
	return nil
}

// Lookup returns the registered key for an issuer, if any.
func (r *Registry) Lookup(name string) (*rsa.PublicKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pub, ok := r.issuers[name]
	return pub, ok
}

// Trusted reports whether the issuer is registered.
func (r *Registry) Trusted(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns all registered issuer names in stable order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.issuers))
	for name := range r.issuers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
