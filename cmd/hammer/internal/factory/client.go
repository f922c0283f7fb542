package factory

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/config"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/core"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/logger"
)

// ClientFactory assembles the hammer client from its collaborators
type ClientFactory struct {
	cfg *config.Config
}

// NewClientFactory creates a new client factory
func NewClientFactory(cfg *config.Config) *ClientFactory {
	return &ClientFactory{cfg: cfg}
}

// Create builds a client. tlsProvider may be nil when TLS is disabled.
func (f *ClientFactory) Create(ctx context.Context, resolver core.TargetResolver, tlsProvider core.TLSProvider, reporter core.Reporter, recorder core.Recorder) (*core.Client, error) {
	dialer, err := f.createDialer(ctx, tlsProvider)
	if err != nil {
		return nil, err
	}

	return &core.Client{
		Resolver:        resolver,
		Dialer:          dialer,
		Reporter:        reporter,
		Recorder:        recorder,
		Phrase:          f.cfg.Phrase,
		Connections:     f.cfg.Connections,
		MaxPendingDials: f.cfg.MaxPendingDials,
		DialRate:        f.cfg.DialRate,
		ReadBufferSize:  f.cfg.ReadBufferSize,
	}, nil
}

func (f *ClientFactory) createDialer(ctx context.Context, tlsProvider core.TLSProvider) (core.Dialer, error) {
	netDialer := &net.Dialer{}

	if !f.cfg.TLSEnabled || tlsProvider == nil {
		logger.Info("Creating plain TCP dialer")
		return netDialer, nil
	}

	tlsConfig, err := tlsProvider.ClientConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load client TLS configuration: %w", err)
	}
	if err := checkClientCertificates(tlsConfig); err != nil {
		return nil, err
	}
	if tlsConfig.MinVersion == 0 {
		tlsConfig.MinVersion = tls.VersionTLS12
	}

	logger.Info("Creating TLS dialer",
		"server_name", tlsConfig.ServerName,
		"client_certificates", len(tlsConfig.Certificates),
		"custom_roots", tlsConfig.RootCAs != nil,
		"min_version", tlsVersionName(tlsConfig.MinVersion))
	return &tls.Dialer{NetDialer: netDialer, Config: tlsConfig}, nil
}

func tlsVersionName(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLSv1.0"
	case tls.VersionTLS11:
		return "TLSv1.1"
	case tls.VersionTLS12:
		return "TLSv1.2"
	case tls.VersionTLS13:
		return "TLSv1.3"
	default:
		return fmt.Sprintf("Unknown (%x)", version)
	}
}
