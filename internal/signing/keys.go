package signing

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"

	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

const (
	// MinKeyBits is the minimum accepted RSA modulus size.
	MinKeyBits = 2048

	privatePEMType          = "PRIVATE KEY"
	encryptedPrivatePEMType = "ENCRYPTED PRIVATE KEY"
	publicPEMType           = "PUBLIC KEY"

	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
)

// GenerateKeyPair creates a fresh RSA key pair of at least MinKeyBits.
func GenerateKeyPair(bits int) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	if bits < MinKeyBits {
		bits = MinKeyBits
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not generate key pair")
	}
	return priv, &priv.PublicKey, nil
}

// SavePrivateKey persists a private key as PKCS#8 PEM, creating parent
// directories as needed. With a non-empty password the DER bytes are
// encrypted with AES-256-GCM under an scrypt-derived key; the salt and
// nonce travel in the PEM headers so the file round-trips on its own.
func SavePrivateKey(priv *rsa.PrivateKey, path, password string) error {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not serialize private key")
	}

	block := &pem.Block{Type: privatePEMType, Bytes: der}
	if password != "" {
		salt := make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "could not generate key salt")
		}
		gcm, err := keyCipher(password, salt)
		if err != nil {
			return err
		}
		nonce := make([]byte, gcm.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "could not generate nonce")
		}
		block = &pem.Block{
			Type: encryptedPrivatePEMType,
			Headers: map[string]string{
				"KDF":   "scrypt",
				"Salt":  base64.StdEncoding.EncodeToString(salt),
				"Nonce": base64.StdEncoding.EncodeToString(nonce),
			},
			Bytes: gcm.Seal(nil, nonce, der, nil),
		}
	}

	return writePEM(path, block)
}

// MarshalPublicKey encodes a public key as PKIX PEM bytes.
func MarshalPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not serialize public key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: publicPEMType, Bytes: der}), nil
}

// ParsePublicKey decodes a PKIX PEM public key from memory.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "no PEM block in public key")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "could not parse public key")
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "not an RSA public key")
	}
	return rsaKey, nil
}

// SavePublicKey persists a public key in PKIX PEM form.
func SavePublicKey(pub *rsa.PublicKey, path string) error {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not serialize public key")
	}
	return writePEM(path, &pem.Block{Type: publicPEMType, Bytes: der})
}

// LoadPrivateKey reads a private key saved by SavePrivateKey. The password
// must match the one used on save, or be empty for unencrypted keys.
func LoadPrivateKey(path, password string) (*rsa.PrivateKey, error) {
	block, err := readPEM(path)
	if err != nil {
		return nil, err
	}

	der := block.Bytes
	if block.Type == encryptedPrivatePEMType {
		if password == "" {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "private key is password protected")
		}
		salt, err := base64.StdEncoding.DecodeString(block.Headers["Salt"])
		if err != nil {
			return nil, dErrors.New(dErrors.CodeStorageError, "corrupt key file: bad salt")
		}
		nonce, err := base64.StdEncoding.DecodeString(block.Headers["Nonce"])
		if err != nil {
			return nil, dErrors.New(dErrors.CodeStorageError, "corrupt key file: bad nonce")
		}
		gcm, err := keyCipher(password, salt)
		if err != nil {
			return nil, err
		}
		der, err = gcm.Open(nil, nonce, block.Bytes, nil)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong key password")
		}
	}

	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageError, "could not parse private key")
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, dErrors.New(dErrors.CodeStorageError, "key file does not hold an RSA key")
	}
	return rsaKey, nil
}

// LoadPublicKey reads a PKIX PEM public key.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	block, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageError, "could not parse public key")
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, dErrors.New(dErrors.CodeStorageError, "key file does not hold an RSA key")
	}
	return rsaKey, nil
}

func keyCipher(password string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not derive key")
	}
	blockCipher, err := aes.NewCipher(key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not build key cipher")
	}
	gcm, err := cipher.NewGCM(blockCipher)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not build key cipher")
	}
	return gcm, nil
}

func writePEM(path string, block *pem.Block) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorageError, "could not create key directory")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorageError, "could not write key file")
	}
	defer f.Close()
	if err := pem.Encode(f, block); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorageError, "could not encode key file")
	}
	return nil
}

func readPEM(path string) (*pem.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageError, "could not read key file")
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, dErrors.New(dErrors.CodeStorageError, "key file holds no PEM block")
	}
	return block, nil
}
