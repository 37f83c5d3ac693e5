package maib

import (
	"crypto/tls"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/crypto/pkcs12"
)

var ErrNoCertificate = errors.New("maib: no client certificate configured")

// CertificateSource points at the merchant certificate, either a PEM
// certificate/key pair or the PKCS#12 bundle issued by the bank.
type CertificateSource struct {
	CertPath string
	KeyPath  string
	PFXPath  string
	Password string
}

func LoadCertificate(src CertificateSource) (tls.Certificate, error) {
	if src.PFXPath != "" {
		data, err := os.ReadFile(src.PFXPath)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("read pfx: %w", err)
		}
		return certificateFromPFX(data, src.Password)
	}

	if src.CertPath == "" || src.KeyPath == "" {
		return tls.Certificate{}, ErrNoCertificate
	}

	cert, err := tls.LoadX509KeyPair(src.CertPath, src.KeyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("load key pair: %w", err)
	}
	return cert, nil
}

func certificateFromPFX(data []byte, password string) (tls.Certificate, error) {
	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode pfx: %w", err)
	}

	var pemData []byte
	for _, b := range blocks {
		pemData = append(pemData, pem.EncodeToMemory(b)...)
	}
	return tls.X509KeyPair(pemData, pemData)
}

// NewHTTPClient returns a client presenting cert on every TLS handshake.
func NewHTTPClient(cert tls.Certificate, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
		},
	}
}
