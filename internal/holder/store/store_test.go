package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/credential"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/models"
	"github.com/AshutoshFreak/zkp-gpa-verification/pkg/testutil"
)

func sampleCredential(id string, score float64) credential.SignedCredential {
	return credential.SignedCredential{
		Credential: credential.Credential{
			CredentialID: id,
			Issuer:       "SchoolA",
			IssuedTo:     "s1",
			ScoreType:    "gpa",
			ScoreValue:   score,
			IssuedAt:     1735689600,
		},
		Signature: "c2lnbmF0dXJl",
	}
}

type CredentialStoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) CredentialStore
}

func TestInMemoryCredentialStore(t *testing.T) {
	suite.Run(t, &CredentialStoreSuite{
		newStore: func(t *testing.T) CredentialStore {
			return NewInMemoryCredentialStore()
		},
	})
}

func TestFileCredentialStore(t *testing.T) {
	suite.Run(t, &CredentialStoreSuite{
		newStore: func(t *testing.T) CredentialStore {
			s, err := NewFileCredentialStore(filepath.Join(t.TempDir(), "credentials"))
			if err != nil {
				t.Fatal(err)
			}
			return s
		},
	})
}

func (s *CredentialStoreSuite) TestSaveAndFind() {
	st := s.newStore(s.T())
	ctx := context.Background()
	cred := sampleCredential("11111111-1111-1111-1111-111111111111", 3.8)

	stored, err := st.Save(ctx, cred)
	s.Require().NoError(err)
	s.True(stored)

	got, err := st.Find(ctx, cred.Credential.CredentialID)
	s.Require().NoError(err)
	s.True(got.Equal(cred))
}

func (s *CredentialStoreSuite) TestIdenticalReStoreIsIdempotent() {
	st := s.newStore(s.T())
	ctx := context.Background()
	cred := sampleCredential("11111111-1111-1111-1111-111111111111", 3.8)

	_, err := st.Save(ctx, cred)
	s.Require().NoError(err)

	stored, err := st.Save(ctx, cred)
	s.Require().NoError(err)
	s.True(stored)
}

func (s *CredentialStoreSuite) TestConflictingContentIsRefused() {
	st := s.newStore(s.T())
	ctx := context.Background()
	cred := sampleCredential("11111111-1111-1111-1111-111111111111", 3.8)

	_, err := st.Save(ctx, cred)
	s.Require().NoError(err)

	tampered := cred
	tampered.Credential.ScoreValue = 4.0
	stored, err := st.Save(ctx, tampered)
	s.Require().NoError(err)
	s.False(stored)

	// The originally stored credential survives.
	got, err := st.Find(ctx, cred.Credential.CredentialID)
	s.Require().NoError(err)
	s.Equal(3.8, got.Credential.ScoreValue)
}

func (s *CredentialStoreSuite) TestFindUnknown() {
	st := s.newStore(s.T())
	_, err := st.Find(context.Background(), "99999999-9999-9999-9999-999999999999")
	s.ErrorIs(err, ErrCredentialNotFound)
}

func (s *CredentialStoreSuite) TestDeleteAndList() {
	st := s.newStore(s.T())
	ctx := context.Background()
	a := sampleCredential("11111111-1111-1111-1111-111111111111", 3.8)
	b := sampleCredential("22222222-2222-2222-2222-222222222222", 3.2)

	_, err := st.Save(ctx, a)
	s.Require().NoError(err)
	_, err = st.Save(ctx, b)
	s.Require().NoError(err)

	all, err := st.List(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal(a.Credential.CredentialID, all[0].Credential.CredentialID)

	s.Require().NoError(st.Delete(ctx, a.Credential.CredentialID))
	s.ErrorIs(st.Delete(ctx, a.Credential.CredentialID), ErrCredentialNotFound)

	all, err = st.List(ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *CredentialStoreSuite) TestConcurrentSaves() {
	st := s.newStore(s.T())
	ctx := context.Background()
	cred := sampleCredential("11111111-1111-1111-1111-111111111111", 3.8)

	// Identical envelopes racing on the same ID all succeed idempotently.
	result := testutil.RunConcurrent(16, func(int) error {
		_, err := st.Save(ctx, cred)
		return err
	})
	s.Equal(int32(16), result.Successes)

	got, err := st.Find(ctx, cred.Credential.CredentialID)
	s.Require().NoError(err)
	s.True(got.Equal(cred))
}

func TestFileCredentialStoreSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "credentials")
	ctx := context.Background()
	cred := sampleCredential("11111111-1111-1111-1111-111111111111", 3.8)

	first, err := NewFileCredentialStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := first.Save(ctx, cred); err != nil {
		t.Fatal(err)
	}

	second, err := NewFileCredentialStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := second.Find(ctx, cred.Credential.CredentialID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(cred) {
		t.Fatal("credential changed across reopen")
	}
}

type ProofStoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) ProofStore
}

func TestInMemoryProofStore(t *testing.T) {
	suite.Run(t, &ProofStoreSuite{
		newStore: func(t *testing.T) ProofStore {
			return NewInMemoryProofStore()
		},
	})
}

func TestFileProofStore(t *testing.T) {
	suite.Run(t, &ProofStoreSuite{
		newStore: func(t *testing.T) ProofStore {
			s, err := NewFileProofStore(filepath.Join(t.TempDir(), "proofs"))
			if err != nil {
				t.Fatal(err)
			}
			return s
		},
	})
}

func (s *ProofStoreSuite) TestSaveFindReplace() {
	st := s.newStore(s.T())
	ctx := context.Background()
	id := "11111111-1111-1111-1111-111111111111"

	_, err := st.Find(ctx, id)
	s.ErrorIs(err, ErrProofNotFound)

	bundle := models.ProofBundle{
		Proof:  []byte(`{"scheme":"stub"}`),
		Public: []byte(`["350"]`),
		Metadata: models.ProofMetadata{
			CredentialID:     id,
			CredentialIssuer: "SchoolA",
			ScoreType:        "gpa",
			Threshold:        3.5,
			StudentID:        "s1",
			ScaleFactor:      100,
		},
	}
	s.Require().NoError(st.Save(ctx, id, bundle))

	got, err := st.Find(ctx, id)
	s.Require().NoError(err)
	s.Equal(bundle.Metadata, got.Metadata)

	// A newer proof replaces the previous one.
	bundle.Metadata.Threshold = 3.0
	s.Require().NoError(st.Save(ctx, id, bundle))
	got, err = st.Find(ctx, id)
	s.Require().NoError(err)
	s.Equal(3.0, got.Metadata.Threshold)
}
