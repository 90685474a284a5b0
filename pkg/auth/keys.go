package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	privateKeyFile = "rsa"
	publicKeyFile  = "rsa.pub"
	keyBits        = 4096
)

var ErrKeyFileExists = errors.New("key file already exists")

// EnsureKeys generates an RSA keypair under dir unless one is already
// present. The private key PEM is encrypted with the passphrase. Writes are
// create-only, so a concurrent or pre-existing pair is never overwritten; the
// first writer wins and everyone else fails with ErrKeyFileExists.
func EnsureKeys(dir string, passphrase string) error {
	if passphrase == "" {
		return errors.New("empty jwt passphrase")
	}

	privatePath := filepath.Join(dir, privateKeyFile)
	publicPath := filepath.Join(dir, publicKeyFile)

	if fileExists(privatePath) && fileExists(publicPath) {
		return nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create key dir failed: %w", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return fmt.Errorf("generate rsa key failed: %w", err)
	}

	//nolint:staticcheck // PEM-level encryption keeps the key file format portable
	privateBlock, err := x509.EncryptPEMBlock(
		rand.Reader,
		"RSA PRIVATE KEY",
		x509.MarshalPKCS1PrivateKey(key),
		[]byte(passphrase),
		x509.PEMCipherAES256,
	)
	if err != nil {
		return fmt.Errorf("encrypt private key failed: %w", err)
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("marshal public key failed: %w", err)
	}
	publicBlock := &pem.Block{Type: "PUBLIC KEY", Bytes: publicDER}

	if err := writeExclusive(privatePath, pem.EncodeToMemory(privateBlock), 0o600); err != nil {
		return err
	}
	if err := writeExclusive(publicPath, pem.EncodeToMemory(publicBlock), 0o644); err != nil {
		return err
	}

	return nil
}

// LoadKeys reads and decrypts the keypair generated by EnsureKeys.
func LoadKeys(dir string, passphrase string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privatePEM, err := os.ReadFile(filepath.Join(dir, privateKeyFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read private key failed: %w", err)
	}

	block, _ := pem.Decode(privatePEM)
	if block == nil {
		return nil, nil, errors.New("private key is not pem encoded")
	}

	//nolint:staticcheck
	der, err := x509.DecryptPEMBlock(block, []byte(passphrase))
	if err != nil {
		return nil, nil, fmt.Errorf("decrypt private key failed: %w", err)
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, nil, fmt.Errorf("parse private key failed: %w", err)
	}

	publicPEM, err := os.ReadFile(filepath.Join(dir, publicKeyFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read public key failed: %w", err)
	}

	block, _ = pem.Decode(publicPEM)
	if block == nil {
		return nil, nil, errors.New("public key is not pem encoded")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse public key failed: %w", err)
	}

	publicKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, nil, errors.New("public key is not rsa")
	}

	return privateKey, publicKey, nil
}

func writeExclusive(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
		}
		return fmt.Errorf("create key file failed: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write key file failed: %w", err)
	}

	return f.Close()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
