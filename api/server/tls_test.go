// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/utils/logging"
)

func TestLoadTLSCert(t *testing.T) {
	require := require.New(t)

	certBytes, keyBytes, err := NewCertAndKeyBytes()
	require.NoError(err)
	cert, err := LoadTLSCertFromBytes(keyBytes, certBytes)
	require.NoError(err)
	require.Equal([]string{"localhost"}, cert.Leaf.DNSNames)
	require.NoError(cert.Leaf.VerifyHostname("127.0.0.1"))
}

func TestLoadTLSCertFailures(t *testing.T) {
	require := require.New(t)

	certBytes, _, err := NewCertAndKeyBytes()
	require.NoError(err)

	_, err = LoadTLSCertFromBytes([]byte("not pem"), certBytes)
	require.ErrorIs(err, ErrParsingPrivateKey)

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(err)
	pkcs1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(rsaKey)})
	_, err = LoadTLSCertFromBytes(pkcs1, certBytes)
	require.ErrorIs(err, ErrPrivateKeyNotPKCS8)

	pkcs8, err := x509.MarshalPKCS8PrivateKey(rsaKey)
	require.NoError(err)
	mismatched := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})
	_, err = LoadTLSCertFromBytes(mismatched, certBytes)
	require.ErrorIs(err, ErrParsingKeyPair)
}

func TestInitKeyPairKeepsExisting(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	keyPath := filepath.Join(dir, "tls", "server.key")
	certPath := filepath.Join(dir, "tls", "server.crt")

	require.NoError(InitKeyPair(keyPath, certPath))
	certBytes, err := os.ReadFile(certPath)
	require.NoError(err)

	require.NoError(InitKeyPair(keyPath, certPath))
	reread, err := os.ReadFile(certPath)
	require.NoError(err)
	require.Equal(certBytes, reread)

	_, err = LoadTLSCertFromFiles(keyPath, certPath)
	require.NoError(err)
}

func TestServerDispatchTLS(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	cfg := testConfig()
	cfg.TLSEnabled = true
	cfg.TLSKeyFile = filepath.Join(dir, "server.key")
	cfg.TLSCertFile = filepath.Join(dir, "server.crt")

	s, err := New(logging.NoLog{}, cfg)
	require.NoError(err)
	require.NoError(s.AddRoute(okHandler("secure"), "dao", ""))

	done := make(chan error, 1)
	go func() {
		done <- s.Dispatch()
	}()

	certBytes, err := os.ReadFile(cfg.TLSCertFile)
	require.NoError(err)
	pool := x509.NewCertPool()
	require.True(pool.AppendCertsFromPEM(certBytes))
	transport := &http.Transport{TLSClientConfig: &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}}
	client := &http.Client{Transport: transport}

	resp, err := client.Get(fmt.Sprintf("https://%s/ext/dao", s.Addr()))
	require.NoError(err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(err)
	require.NoError(resp.Body.Close())
	require.Equal("secure", string(body))

	transport.CloseIdleConnections()
	require.NoError(s.Shutdown())
	require.NoError(<-done)
}
