package store

import (
	"context"
	"sort"
	"sync"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/credential"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/models"
)

// InMemoryCredentialStore is a concurrency-safe map-backed wallet.
type InMemoryCredentialStore struct {
	mu          sync.RWMutex
	credentials map[string]credential.SignedCredential
}

func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{credentials: make(map[string]credential.SignedCredential)}
}

func (s *InMemoryCredentialStore) Save(_ context.Context, cred credential.SignedCredential) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.credentials[cred.Credential.CredentialID]; ok {
		return existing.Equal(cred), nil
	}
	s.credentials[cred.Credential.CredentialID] = cred
	return true, nil
}

func (s *InMemoryCredentialStore) Find(_ context.Context, credentialID string) (credential.SignedCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cred, ok := s.credentials[credentialID]; ok {
		return cred, nil
	}
	return credential.SignedCredential{}, ErrCredentialNotFound
}

func (s *InMemoryCredentialStore) Delete(_ context.Context, credentialID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[credentialID]; !ok {
		return ErrCredentialNotFound
	}
	delete(s.credentials, credentialID)
	return nil
}

// List returns all held credentials ordered by credential ID.
func (s *InMemoryCredentialStore) List(_ context.Context) ([]credential.SignedCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]credential.SignedCredential, 0, len(s.credentials))
	for _, cred := range s.credentials {
		out = append(out, cred)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Credential.CredentialID < out[j].Credential.CredentialID
	})
	return out, nil
}

// InMemoryProofStore keeps the latest proof bundle per credential.
type InMemoryProofStore struct {
	mu     sync.RWMutex
	proofs map[string]models.ProofBundle
}

func NewInMemoryProofStore() *InMemoryProofStore {
	return &InMemoryProofStore{proofs: make(map[string]models.ProofBundle)}
}

func (s *InMemoryProofStore) Save(_ context.Context, credentialID string, bundle models.ProofBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proofs[credentialID] = bundle
	return nil
}

func (s *InMemoryProofStore) Find(_ context.Context, credentialID string) (models.ProofBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if bundle, ok := s.proofs[credentialID]; ok {
		return bundle, nil
	}
	return models.ProofBundle{}, ErrProofNotFound
}
