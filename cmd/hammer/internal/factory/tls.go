package factory

import (
	"context"
	"crypto/tls"
	"encoding/pem"
	"fmt"

	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/config"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/core"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/discovery/kubernetes"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/discovery/memory"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/logger"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/storage/filesystem"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/utils"

	k8s "k8s.io/client-go/kubernetes"
)

// Client certificates expiring within this many days are logged.
const certExpiryWarningDays = 30

// TLSFactory creates TLS providers based on configuration
type TLSFactory struct {
	cfg *config.Config
}

// NewTLSFactory creates a new TLS factory
func NewTLSFactory(cfg *config.Config) *TLSFactory {
	return &TLSFactory{cfg: cfg}
}

// Create creates a TLS provider based on configuration
func (f *TLSFactory) Create(ctx context.Context, clientset k8s.Interface) (core.TLSProvider, error) {
	switch f.cfg.TLSMode {
	case config.TLSModeFile:
		return f.createFileProvider()
	case config.TLSModeKubernetes:
		return f.createKubernetesProvider(clientset)
	case config.TLSModeInsecure:
		return f.createInsecureProvider()
	default:
		return nil, fmt.Errorf("unknown TLS mode: %s", f.cfg.TLSMode)
	}
}

func (f *TLSFactory) createFileProvider() (core.TLSProvider, error) {
	logger.Info("Creating File-based TLS Provider",
		"cert", f.cfg.TLSCertFile,
		"key", f.cfg.TLSKeyFile,
		"ca", f.cfg.TLSCAFile)
	return filesystem.NewFileTLSProvider(f.cfg.TLSCertFile, f.cfg.TLSKeyFile, f.cfg.TLSCAFile, f.cfg.TLSServerName), nil
}

func (f *TLSFactory) createKubernetesProvider(clientset k8s.Interface) (core.TLSProvider, error) {
	if clientset == nil {
		return nil, fmt.Errorf("kubernetes TLS mode requires kubernetes client (set TARGET_SERVICE or DISCOVERY_MODE=kubernetes)")
	}

	logger.Info("Creating Kubernetes TLS Provider",
		"namespace", f.cfg.TargetNamespace,
		"secret", f.cfg.TLSSecretName)

	return kubernetes.NewK8sTLSProvider(clientset, f.cfg.TargetNamespace, f.cfg.TLSSecretName, f.cfg.TLSServerName), nil
}

func (f *TLSFactory) createInsecureProvider() (core.TLSProvider, error) {
	logger.Warn("Creating Insecure TLS Provider - server certificates will not be verified")
	return memory.NewInsecureTLSProvider(f.cfg.TLSServerName), nil
}

// checkClientCertificates warns about client certificates close to expiry.
func checkClientCertificates(tlsConfig *tls.Config) error {
	for _, cert := range tlsConfig.Certificates {
		if len(cert.Certificate) == 0 {
			continue
		}
		certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Certificate[0]})
		expiring, notAfter, err := utils.CertificateExpiry(certPEM, certExpiryWarningDays)
		if err != nil {
			return fmt.Errorf("invalid client certificate: %w", err)
		}
		if expiring {
			logger.Warn("Client certificate is about to expire", "not_after", notAfter)
		}
	}
	return nil
}
