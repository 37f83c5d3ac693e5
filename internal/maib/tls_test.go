package maib

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeyPair(t *testing.T) (string, string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "merchant"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0600))
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0600))

	return certPath, keyPath
}

func TestLoadCertificate(t *testing.T) {
	t.Run("PEMPair", func(t *testing.T) {
		certPath, keyPath := writeKeyPair(t)

		cert, err := LoadCertificate(CertificateSource{CertPath: certPath, KeyPath: keyPath})
		require.NoError(t, err)
		assert.Len(t, cert.Certificate, 1)

		client := NewHTTPClient(cert, 5*time.Second)
		assert.Equal(t, 5*time.Second, client.Timeout)
	})

	t.Run("NothingConfigured", func(t *testing.T) {
		_, err := LoadCertificate(CertificateSource{})
		assert.ErrorIs(t, err, ErrNoCertificate)
	})

	t.Run("MissingPFX", func(t *testing.T) {
		_, err := LoadCertificate(CertificateSource{PFXPath: filepath.Join(t.TempDir(), "missing.pfx")})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "read pfx")
	})

	t.Run("CorruptPFX", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.pfx")
		require.NoError(t, os.WriteFile(path, []byte("not a pfx"), 0600))

		_, err := LoadCertificate(CertificateSource{PFXPath: path, Password: "secret"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "decode pfx")
	})
}
