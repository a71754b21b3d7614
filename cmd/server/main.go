package main

import (
	"context"
	"crypto/rsa"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/auth"
	holderhandler "github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/handler"
	holderservice "github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/service"
	holderstore "github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/store"
	issuerhandler "github.com/AshutoshFreak/zkp-gpa-verification/internal/issuer/handler"
	issuerservice "github.com/AshutoshFreak/zkp-gpa-verification/internal/issuer/service"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/platform/config"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/platform/health"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/platform/httpserver"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/platform/logger"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/platform/metrics"
	scoreshandler "github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/handler"
	scoresservice "github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/service"
	scoresstore "github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/store"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/signing"
	httptransport "github.com/AshutoshFreak/zkp-gpa-verification/internal/transport/http"
	verifierhandler "github.com/AshutoshFreak/zkp-gpa-verification/internal/verifier/handler"
	verifierservice "github.com/AshutoshFreak/zkp-gpa-verification/internal/verifier/service"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/verifier/trust"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend/gnark"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend/snarkjs"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend/stub"
	"github.com/AshutoshFreak/zkp-gpa-verification/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing zkp-gpa-verification",
		"addr", cfg.Addr,
		"backend", cfg.Backend,
		"issuer", cfg.IssuerName,
	)

	m := metrics.New()

	priv, pub, err := ensureIssuerKeys(cfg.DataDir)
	if err != nil {
		log.Error("could not load issuer keys", "error", err)
		os.Exit(1)
	}

	scoreStore, err := scoresstore.NewFileStore(filepath.Join(cfg.DataDir, "registry.json"))
	if err != nil {
		log.Error("could not open score registry", "error", err)
		os.Exit(1)
	}
	registry := scoresservice.NewService(scoreStore, scoresservice.WithLogger(log))

	issuer := issuerservice.NewService(cfg.IssuerName, registry, priv, pub,
		issuerservice.WithLogger(log))

	backend, err := newBackend(cfg)
	if err != nil {
		log.Error("could not construct zk backend", "error", err)
		os.Exit(1)
	}
	backend = zkbackend.Instrument(backend,
		zkbackend.WithLatencyObserver(func(stage string, elapsed time.Duration) {
			m.BackendStageLatency.WithLabelValues(stage).Observe(elapsed.Seconds())
		}))

	credStore, err := holderstore.NewFileCredentialStore(filepath.Join(cfg.DataDir, "credentials"))
	if err != nil {
		log.Error("could not open credential store", "error", err)
		os.Exit(1)
	}
	proofStore, err := holderstore.NewFileProofStore(filepath.Join(cfg.DataDir, "proofs"))
	if err != nil {
		log.Error("could not open proof store", "error", err)
		os.Exit(1)
	}
	holder := holderservice.NewService("holder", credStore, proofStore, backend, cfg.CircuitPath,
		holderservice.WithLogger(log),
		holderservice.WithCRS(cfg.PtauPath),
		holderservice.WithWorkDir(filepath.Join(cfg.DataDir, "artifacts")))

	trustRegistry := trust.NewRegistry()
	verifier := verifierservice.NewService("verifier", backend, trustRegistry,
		verifierservice.WithLogger(log))
	// The local issuer is trusted out of the box; others register over HTTP.
	if err := verifier.AddTrustedIssuer(cfg.IssuerName, pub); err != nil {
		log.Error("could not register local issuer", "error", err)
		os.Exit(1)
	}
	m.TrustedIssuers.Set(float64(len(verifier.TrustedIssuers())))

	tokens := auth.NewTokenService(cfg.JWTSigningKey, "zkp-gpa-verification", time.Hour)

	healthHandler := health.New()
	healthHandler.RegisterCheck("data_dir", func() error {
		_, err := os.Stat(cfg.DataDir)
		return err
	})

	router := httptransport.NewRouter(httptransport.Handlers{
		Registry: scoreshandler.New(registry, log, m),
		Issuer:   issuerhandler.New(issuer, log, m),
		Holder:   holderhandler.New(holder, log, m),
		Verifier: verifierhandler.New(verifier, holder, log, m),
		Health:   healthHandler,
	}, tokens, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// ensureIssuerKeys loads the issuer key pair from the data dir, generating
// one on first start.
func ensureIssuerKeys(dataDir string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privPath := filepath.Join(dataDir, "keys", "issuer.pem")
	pubPath := filepath.Join(dataDir, "keys", "issuer.pub.pem")
	password := os.Getenv("ZKP_GPA_KEY_PASSWORD")

	if _, err := os.Stat(privPath); err == nil {
		priv, err := signing.LoadPrivateKey(privPath, password)
		if err != nil {
			return nil, nil, err
		}
		pub, err := signing.LoadPublicKey(pubPath)
		if err != nil {
			return nil, nil, err
		}
		return priv, pub, nil
	}

	priv, pub, err := signing.GenerateKeyPair(signing.MinKeyBits)
	if err != nil {
		return nil, nil, err
	}
	if err := signing.SavePrivateKey(priv, privPath, password); err != nil {
		return nil, nil, err
	}
	if err := signing.SavePublicKey(pub, pubPath); err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}

// newBackend selects the proving toolchain from config.
func newBackend(cfg config.Server) (zkbackend.Backend, error) {
	switch cfg.Backend {
	case "gnark":
		return gnark.New(), nil
	case "snarkjs":
		// The subprocess toolchain can be missing entirely, so shield it
		// with a breaker instead of probing circom on every request.
		backend := snarkjs.New(filepath.Join(cfg.DataDir, "artifacts"))
		return zkbackend.WithBreaker(backend, circuit.New("snarkjs")), nil
	case "stub":
		return stub.New(), nil
	default:
		return nil, errors.New("unknown backend: " + cfg.Backend)
	}
}
