package kubernetes

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// K8sTLSProvider reads client TLS material from a Secret. tls.crt/tls.key
// become the client certificate and ca.crt, when present, the root pool.
type K8sTLSProvider struct {
	clientset  kubernetes.Interface
	namespace  string
	secretName string
	serverName string
}

func NewK8sTLSProvider(clientset kubernetes.Interface, namespace, secretName, serverName string) *K8sTLSProvider {
	return &K8sTLSProvider{
		clientset:  clientset,
		namespace:  namespace,
		secretName: secretName,
		serverName: serverName,
	}
}

func (p *K8sTLSProvider) ClientConfig(ctx context.Context) (*tls.Config, error) {
	secret, err := p.clientset.CoreV1().Secrets(p.namespace).Get(ctx, p.secretName, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s/%s: %w", p.namespace, p.secretName, err)
	}

	cfg := &tls.Config{ServerName: p.serverName}

	certBytes, hasCert := secret.Data[corev1.TLSCertKey]
	keyBytes, hasKey := secret.Data[corev1.TLSPrivateKeyKey]
	if hasCert != hasKey {
		return nil, fmt.Errorf("secret %s/%s must hold both %s and %s", p.namespace, p.secretName, corev1.TLSCertKey, corev1.TLSPrivateKeyKey)
	}
	if hasCert {
		cert, err := tls.X509KeyPair(certBytes, keyBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse x509 key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if caBytes, ok := secret.Data[corev1.ServiceAccountRootCAKey]; ok {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, fmt.Errorf("secret %s/%s: no certificates in %s", p.namespace, p.secretName, corev1.ServiceAccountRootCAKey)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}
