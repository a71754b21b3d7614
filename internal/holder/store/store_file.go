package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/credential"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/models"
	pkgerrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// FileCredentialStore persists each credential as <dir>/<credential_id>.json
// and serves reads from memory. Files that fail to parse at open are skipped
// rather than failing the whole wallet.
type FileCredentialStore struct {
	mu          sync.RWMutex
	dir         string
	credentials map[string]credential.SignedCredential
}

func NewFileCredentialStore(dir string) (*FileCredentialStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "could not create credentials directory")
	}
	s := &FileCredentialStore{dir: dir, credentials: make(map[string]credential.SignedCredential)}

	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "could not scan credentials directory")
	}
	for _, path := range entries {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cred credential.SignedCredential
		if err := json.Unmarshal(data, &cred); err != nil {
			continue
		}
		if cred.Credential.CredentialID == "" {
			continue
		}
		s.credentials[cred.Credential.CredentialID] = cred
	}
	return s, nil
}

func (s *FileCredentialStore) Save(_ context.Context, cred credential.SignedCredential) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.credentials[cred.Credential.CredentialID]; ok {
		return existing.Equal(cred), nil
	}
	if err := s.writeLocked(cred); err != nil {
		return false, err
	}
	s.credentials[cred.Credential.CredentialID] = cred
	return true, nil
}

func (s *FileCredentialStore) Find(_ context.Context, credentialID string) (credential.SignedCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cred, ok := s.credentials[credentialID]; ok {
		return cred, nil
	}
	return credential.SignedCredential{}, ErrCredentialNotFound
}

func (s *FileCredentialStore) Delete(_ context.Context, credentialID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[credentialID]; !ok {
		return ErrCredentialNotFound
	}
	if err := os.Remove(s.pathFor(credentialID)); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "could not delete credential file")
	}
	delete(s.credentials, credentialID)
	return nil
}

func (s *FileCredentialStore) List(_ context.Context) ([]credential.SignedCredential, error) {
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

func (s *FileCredentialStore) pathFor(credentialID string) string {
	return filepath.Join(s.dir, credentialID+".json")
}

func (s *FileCredentialStore) writeLocked(cred credential.SignedCredential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "could not encode credential")
	}
	if err := os.WriteFile(s.pathFor(cred.Credential.CredentialID), data, 0o600); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "could not write credential file")
	}
	return nil
}

// FileProofStore persists each proof bundle as <dir>/<credential_id>.json.
type FileProofStore struct {
	mu  sync.Mutex
	dir string
}

func NewFileProofStore(dir string) (*FileProofStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "could not create proofs directory")
	}
	return &FileProofStore{dir: dir}, nil
}

func (s *FileProofStore) Save(_ context.Context, credentialID string, bundle models.ProofBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "could not encode proof bundle")
	}
	if err := os.WriteFile(filepath.Join(s.dir, credentialID+".json"), data, 0o600); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "could not write proof bundle")
	}
	return nil
}

func (s *FileProofStore) Find(_ context.Context, credentialID string) (models.ProofBundle, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, credentialID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return models.ProofBundle{}, ErrProofNotFound
		}
		return models.ProofBundle{}, pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "could not read proof bundle")
	}
	var bundle models.ProofBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return models.ProofBundle{}, pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "corrupt proof bundle")
	}
	return bundle, nil
}
