package kubernetes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/core"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func service(namespace, name string, ports ...corev1.ServicePort) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Spec:       corev1.ServiceSpec{Ports: ports},
	}
}

func TestK8sResolver(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		service("load", "echo",
			corev1.ServicePort{Name: "metrics", Port: 9090},
			corev1.ServicePort{Name: "echo", Port: 7000}),
		service("load", "empty"),
		service("other", "echo", corev1.ServicePort{Name: "echo", Port: 7001}),
	)

	tests := []struct {
		name     string
		service  string
		portName string
		want     string
		notFound bool
	}{
		{name: "first port", service: "echo", want: "echo.load.svc.cluster.local:9090"},
		{name: "named port", service: "echo", portName: "echo", want: "echo.load.svc.cluster.local:7000"},
		{name: "unknown port name", service: "echo", portName: "grpc", notFound: true},
		{name: "no ports", service: "empty", notFound: true},
		{name: "missing service", service: "nope", notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			r, err := NewK8sResolver(ctx, clientset, "load", tt.service, tt.portName)
			require.NoError(t, err)

			addr, err := r.Resolve(ctx)
			if tt.notFound {
				assert.True(t, errors.Is(err, core.ErrTargetNotFound), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, addr)
		})
	}
}

func TestK8sResolverSeesLateService(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientset := fake.NewSimpleClientset()
	r, err := NewK8sResolver(ctx, clientset, "load", "echo", "")
	require.NoError(t, err)

	_, err = r.Resolve(ctx)
	require.Error(t, err)

	_, err = clientset.CoreV1().Services("load").Create(ctx,
		service("load", "echo", corev1.ServicePort{Port: 7000}), metav1.CreateOptions{})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		addr, err := r.Resolve(ctx)
		return err == nil && addr == "echo.load.svc.cluster.local:7000"
	}, 5*time.Second, 20*time.Millisecond)
}

func tlsSecret(data map[string][]byte) *corev1.Secret {
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "hammer-tls", Namespace: "load"},
		Type:       corev1.SecretTypeTLS,
		Data:       data,
	}
}

func TestK8sTLSProvider(t *testing.T) {
	certPEM, keyPEM, err := utils.GenerateSelfSignedCert("echo.load.svc.cluster.local")
	require.NoError(t, err)

	clientset := fake.NewSimpleClientset(tlsSecret(map[string][]byte{
		corev1.TLSCertKey:              certPEM,
		corev1.TLSPrivateKeyKey:        keyPEM,
		corev1.ServiceAccountRootCAKey: certPEM,
	}))

	cfg, err := NewK8sTLSProvider(clientset, "load", "hammer-tls", "echo").ClientConfig(context.Background())
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)
	assert.NotNil(t, cfg.RootCAs)
	assert.Equal(t, "echo", cfg.ServerName)
}

func TestK8sTLSProviderErrors(t *testing.T) {
	certPEM, _, err := utils.GenerateSelfSignedCert("localhost")
	require.NoError(t, err)

	tests := []struct {
		name string
		data map[string][]byte
	}{
		{name: "cert without key", data: map[string][]byte{corev1.TLSCertKey: certPEM}},
		{name: "bad key pair", data: map[string][]byte{corev1.TLSCertKey: certPEM, corev1.TLSPrivateKeyKey: []byte("x")}},
		{name: "bad CA", data: map[string][]byte{corev1.ServiceAccountRootCAKey: []byte("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientset := fake.NewSimpleClientset(tlsSecret(tt.data))
			_, err := NewK8sTLSProvider(clientset, "load", "hammer-tls", "").ClientConfig(context.Background())
			assert.Error(t, err)
		})
	}

	t.Run("missing secret", func(t *testing.T) {
		_, err := NewK8sTLSProvider(fake.NewSimpleClientset(), "load", "hammer-tls", "").ClientConfig(context.Background())
		assert.Error(t, err)
	})
}
