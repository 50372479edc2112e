// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"github.com/ava-labs/avalanchego/utils/perms"
)

const certValidity = 10 * 365 * 24 * time.Hour

var (
	ErrPrivateKeyNotPKCS8 = errors.New("server accepts only PKCS8 private keys")
	ErrParsingPrivateKey  = errors.New("failed parsing private key")
	ErrParsingKeyPair     = errors.New("failed parsing key pair")
)

// InitKeyPair generates a self-signed key/cert pair for the API server at
// [keyPath] and [certPath]. Existing files are left untouched.
func InitKeyPair(keyPath, certPath string) error {
	if _, err := os.Stat(keyPath); !os.IsNotExist(err) {
		return err
	}

	certBytes, keyBytes, err := NewCertAndKeyBytes()
	if err != nil {
		return err
	}
	for _, dir := range []string{filepath.Dir(certPath), filepath.Dir(keyPath)} {
		if err := os.MkdirAll(dir, perms.ReadWriteExecute); err != nil {
			return fmt.Errorf("couldn't create directory %s: %w", dir, err)
		}
	}
	if err := renameio.WriteFile(certPath, certBytes, perms.ReadOnly); err != nil {
		return fmt.Errorf("couldn't write cert file: %w", err)
	}
	if err := renameio.WriteFile(keyPath, keyBytes, perms.ReadOnly); err != nil {
		return fmt.Errorf("couldn't write key file: %w", err)
	}
	return nil
}

// LoadTLSCertFromBytes parses a PEM encoded PKCS8 key and its certificate.
func LoadTLSCertFromBytes(keyBytes, certBytes []byte) (*tls.Certificate, error) {
	keyDERBlock, _ := pem.Decode(keyBytes)
	if keyDERBlock == nil {
		return nil, ErrParsingPrivateKey
	}
	if _, err := x509.ParsePKCS8PrivateKey(keyDERBlock.Bytes); err != nil {
		return nil, ErrPrivateKeyNotPKCS8
	}

	cert, err := tls.X509KeyPair(certBytes, keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsingKeyPair, err)
	}
	cert.Leaf, err = x509.ParseCertificate(cert.Certificate[0])
	return &cert, err
}

func LoadTLSCertFromFiles(keyPath, certPath string) (*tls.Certificate, error) {
	certBytes, err := os.ReadFile(certPath)
	if err != nil {
		return nil, err
	}
	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}
	return LoadTLSCertFromBytes(keyBytes, certBytes)
}

// NewCertAndKeyBytes creates a self-signed certificate valid for localhost
// and returns the PEM encodings of the certificate and its key.
func NewCertAndKeyBytes() ([]byte, []byte, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't generate key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't generate serial number: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"caminodao"}},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}
	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't create certificate: %w", err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't marshal private key: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM, nil
}

func newTLSConfig(keyPath, certPath string) (*tls.Config, error) {
	if err := InitKeyPair(keyPath, certPath); err != nil {
		return nil, err
	}
	cert, err := LoadTLSCertFromFiles(keyPath, certPath)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{*cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
