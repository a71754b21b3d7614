package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/auth"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/credential"
	holderhandler "github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/handler"
	holdermodels "github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/models"
	holderservice "github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/service"
	holderstore "github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/store"
	issuerhandler "github.com/AshutoshFreak/zkp-gpa-verification/internal/issuer/handler"
	issuerservice "github.com/AshutoshFreak/zkp-gpa-verification/internal/issuer/service"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/platform/health"
	scoreshandler "github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/handler"
	scoresservice "github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/service"
	scoresstore "github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/store"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/signing"
	verifierhandler "github.com/AshutoshFreak/zkp-gpa-verification/internal/verifier/handler"
	verifierservice "github.com/AshutoshFreak/zkp-gpa-verification/internal/verifier/service"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/verifier/trust"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend/stub"
)

type RouterSuite struct {
	suite.Suite
	server *httptest.Server
	token  string
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	priv, pub, err := signing.GenerateKeyPair(2048)
	s.Require().NoError(err)

	registry := scoresservice.NewService(scoresstore.NewInMemoryStore())
	issuer := issuerservice.NewService("SchoolA", registry, priv, pub)

	backend := stub.New()
	holder := holderservice.NewService("s1",
		holderstore.NewInMemoryCredentialStore(),
		holderstore.NewInMemoryProofStore(),
		backend, "circuits/score_ge.circom")

	trustRegistry := trust.NewRegistry()
	verifier := verifierservice.NewService("UniversityX", backend, trustRegistry)
	s.Require().NoError(verifier.AddTrustedIssuer("SchoolA", pub))

	tokens := auth.NewTokenService("test-key", "zkp-gpa-verification", time.Hour)
	s.token, err = tokens.GenerateToken("admin", auth.RoleRegistrar)
	s.Require().NoError(err)

	router := NewRouter(Handlers{
		Registry: scoreshandler.New(registry, log, nil),
		Issuer:   issuerhandler.New(issuer, log, nil),
		Holder:   holderhandler.New(holder, log, nil),
		Verifier: verifierhandler.New(verifier, holder, log, nil),
		Health:   health.New(),
	}, tokens, log)

	s.server = httptest.NewServer(router)
}

func (s *RouterSuite) TearDownSuite() {
	s.server.Close()
}

func (s *RouterSuite) request(method, path string, body any, authorized bool) *http.Response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *RouterSuite) decode(resp *http.Response, target any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(target))
}

func (s *RouterSuite) TestFullCredentialFlow() {
	// Registry writes require a token.
	resp := s.request(http.MethodPost, "/registry/students",
		map[string]any{"student_id": "s1", "scores": map[string]float64{"gpa": 3.8}}, false)
	resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = s.request(http.MethodPost, "/registry/students",
		map[string]any{"student_id": "s1", "scores": map[string]float64{"gpa": 3.8}}, true)
	resp.Body.Close()
	s.Equal(http.StatusCreated, resp.StatusCode)

	// Issue a credential for the registered score.
	resp = s.request(http.MethodPost, "/issuer/credentials",
		map[string]string{"student_id": "s1", "score_type": "gpa"}, true)
	s.Equal(http.StatusCreated, resp.StatusCode)
	var issued credential.SignedCredential
	s.decode(resp, &issued)
	s.NotEmpty(issued.Credential.CredentialID)
	s.Equal(3.8, issued.Credential.ScoreValue)
	s.NotEmpty(issued.Signature)

	// Hand the credential to the holder exactly as issued.
	resp = s.request(http.MethodPost, "/holder/credentials", issued, false)
	resp.Body.Close()
	s.Equal(http.StatusCreated, resp.StatusCode)

	// Generate a proof for threshold 3.5.
	resp = s.request(http.MethodPost, "/holder/proofs",
		map[string]any{"credential_id": issued.Credential.CredentialID, "threshold": 3.5, "scale_factor": 100}, false)
	s.Equal(http.StatusCreated, resp.StatusCode)
	var bundle holdermodels.ProofBundle
	s.decode(resp, &bundle)
	s.Equal(3.5, bundle.Metadata.Threshold)

	// The serialized bundle reveals nothing about the score.
	raw, err := json.Marshal(bundle)
	s.Require().NoError(err)
	s.NotContains(string(raw), "3.8")
	s.NotContains(string(raw), "380")

	// Verify the proof.
	resp = s.request(http.MethodPost, "/verifier/verify",
		map[string]any{"bundle": bundle}, false)
	s.Equal(http.StatusOK, resp.StatusCode)
	var result verifierservice.Result
	s.decode(resp, &result)
	s.True(result.Valid)

	// A verifier expecting a different threshold rejects without proving.
	resp = s.request(http.MethodPost, "/verifier/verify",
		map[string]any{"bundle": bundle, "threshold": 3.6}, false)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decode(resp, &result)
	s.False(result.Valid)
	s.Equal(verifierservice.ReasonThresholdMismatch, result.Reason)

	// Cross-check the issuer claim with the signed credential. SchoolA is in
	// the trust registry, so the signature is re-verified against its key.
	resp = s.request(http.MethodPost, "/verifier/verify-with-issuer",
		map[string]any{
			"bundle":      bundle,
			"issuer_name": "SchoolA",
			"credential":  issued,
		}, false)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decode(resp, &result)
	s.True(result.Valid)
}

func (s *RouterSuite) TestIssuanceForUnknownScoreType() {
	resp := s.request(http.MethodPost, "/registry/students",
		map[string]any{"student_id": "s2", "scores": map[string]float64{"gpa": 3.0}}, true)
	resp.Body.Close()
	s.Equal(http.StatusCreated, resp.StatusCode)

	resp = s.request(http.MethodPost, "/issuer/credentials",
		map[string]string{"student_id": "s2", "score_type": "sat"}, true)
	defer resp.Body.Close()
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *RouterSuite) TestPublicKeyEndpointIsOpen() {
	resp := s.request(http.MethodGet, "/issuer/public-key", nil, false)
	s.Equal(http.StatusOK, resp.StatusCode)
	var body struct {
		Issuer    string `json:"issuer"`
		PublicKey string `json:"public_key"`
	}
	s.decode(resp, &body)
	s.Equal("SchoolA", body.Issuer)
	s.Contains(body.PublicKey, "PUBLIC KEY")
}

func (s *RouterSuite) TestTrustedIssuerRegistration() {
	_, pub, err := signing.GenerateKeyPair(2048)
	s.Require().NoError(err)
	pemBytes, err := signing.MarshalPublicKey(pub)
	s.Require().NoError(err)

	resp := s.request(http.MethodPost, "/verifier/trusted-issuers",
		map[string]string{"name": "SchoolB", "public_key": string(pemBytes)}, false)
	s.Equal(http.StatusCreated, resp.StatusCode)
	var body struct {
		TrustedIssuers []string `json:"trusted_issuers"`
	}
	s.decode(resp, &body)
	s.Contains(body.TrustedIssuers, "SchoolA")
	s.Contains(body.TrustedIssuers, "SchoolB")
}

func (s *RouterSuite) TestHealthAndMetrics() {
	resp := s.request(http.MethodGet, "/health/live", nil, false)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	resp = s.request(http.MethodGet, "/metrics", nil, false)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *RouterSuite) TestRejectsNonJSONContentType() {
	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/holder/proofs", bytes.NewReader([]byte("x")))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "text/plain")
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusUnsupportedMediaType, resp.StatusCode)
}
