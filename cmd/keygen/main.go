// Command keygen generates an issuer RSA key pair and writes it as PEM.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/signing"
)

func main() {
	var (
		outDir   = flag.String("out", "keys", "directory to write the key pair to")
		name     = flag.String("name", "issuer", "base name for the key files")
		bits     = flag.Int("bits", signing.MinKeyBits, "RSA key size in bits")
		password = flag.String("password", "", "optional password to encrypt the private key")
	)
	flag.Parse()

	priv, pub, err := signing.GenerateKeyPair(*bits)
	if err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}

	privPath := filepath.Join(*outDir, *name+".pem")
	pubPath := filepath.Join(*outDir, *name+".pub.pem")

	if err := signing.SavePrivateKey(priv, privPath, *password); err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}
	if err := signing.SavePublicKey(pub, pubPath); err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}

	fmt.Println("private key:", privPath)
	fmt.Println("public key: ", pubPath)
}
