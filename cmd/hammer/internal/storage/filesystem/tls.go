package filesystem

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// FileTLSProvider builds a client TLS config from PEM files on disk.
// CertFile/KeyFile are optional (client certificate); CAFile is optional
// (system roots are used when empty).
type FileTLSProvider struct {
	CertFile   string
	KeyFile    string
	CAFile     string
	ServerName string
}

func NewFileTLSProvider(certFile, keyFile, caFile, serverName string) *FileTLSProvider {
	return &FileTLSProvider{
		CertFile:   certFile,
		KeyFile:    keyFile,
		CAFile:     caFile,
		ServerName: serverName,
	}
}

func (p *FileTLSProvider) ClientConfig(ctx context.Context) (*tls.Config, error) {
	cfg := &tls.Config{ServerName: p.ServerName}

	if p.CertFile != "" || p.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(p.CertFile, p.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load key pair from %s, %s: %w", p.CertFile, p.KeyFile, err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if p.CAFile != "" {
		caPEM, err := os.ReadFile(p.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file %s: %w", p.CAFile, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no certificates found in CA file %s", p.CAFile)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}
