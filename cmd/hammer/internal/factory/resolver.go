package factory

import (
	"context"
	"fmt"
	"os"

	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/config"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/core"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/discovery/kubernetes"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/discovery/memory"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/logger"

	k8s "k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ResolverFactory creates target resolvers based on configuration
type ResolverFactory struct {
	cfg *config.Config

	// NewClientset builds the Kubernetes client; tests replace it.
	NewClientset func(*rest.Config) (k8s.Interface, error)
}

// NewResolverFactory creates a new resolver factory
func NewResolverFactory(cfg *config.Config) *ResolverFactory {
	return &ResolverFactory{
		cfg: cfg,
		NewClientset: func(c *rest.Config) (k8s.Interface, error) {
			return k8s.NewForConfig(c)
		},
	}
}

// Create creates a target resolver based on configuration. The clientset is
// nil unless kubernetes discovery is used.
func (f *ResolverFactory) Create(ctx context.Context) (core.TargetResolver, k8s.Interface, error) {
	switch f.cfg.DiscoveryMode {
	case config.DiscoveryStatic:
		return f.createStaticResolver()
	case config.DiscoveryKubernetes:
		return f.createKubernetesResolver(ctx)
	default:
		return nil, nil, fmt.Errorf("unknown discovery mode: %s", f.cfg.DiscoveryMode)
	}
}

func (f *ResolverFactory) createStaticResolver() (core.TargetResolver, k8s.Interface, error) {
	logger.Info("Creating Static Target Resolver", "host", f.cfg.Host, "port", f.cfg.Port)

	resolver, err := memory.NewResolver(f.cfg.Host, f.cfg.Port)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create static resolver: %w", err)
	}

	return resolver, nil, nil
}

func (f *ResolverFactory) createKubernetesResolver(ctx context.Context) (core.TargetResolver, k8s.Interface, error) {
	logger.Info("Creating Kubernetes Target Resolver",
		"runtime", f.cfg.Runtime,
		"service", f.cfg.TargetService,
		"namespace", f.cfg.TargetNamespace,
		"kubeconfig", f.cfg.KubeConfigPath,
		"context", f.cfg.KubeContext)

	restConfig, err := f.restConfig()
	if err != nil {
		return nil, nil, err
	}

	clientset, err := f.NewClientset(restConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	resolver, err := kubernetes.NewK8sResolver(ctx, clientset,
		f.cfg.TargetNamespace, f.cfg.TargetService, f.cfg.TargetPortName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kubernetes resolver: %w", err)
	}
	logger.Info("Kubernetes resolver created successfully")
	return resolver, clientset, nil
}

func (f *ResolverFactory) restConfig() (*rest.Config, error) {
	kubeconfig := f.cfg.KubeConfigPath

	// Outside a cluster fall back to the user's kubeconfig
	if f.cfg.Runtime != config.RuntimeKubernetes && kubeconfig == "" {
		if home := os.Getenv("HOME"); home != "" {
			kubeconfig = home + "/.kube/config"
		}
	}

	configOverrides := &clientcmd.ConfigOverrides{}
	if f.cfg.KubeContext != "" {
		configOverrides.CurrentContext = f.cfg.KubeContext
		logger.Info("Using specific Kubernetes context", "context", f.cfg.KubeContext)
	}

	var restConfig *rest.Config
	var err error

	if kubeconfig != "" {
		restConfig, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfig},
			configOverrides,
		).ClientConfig()

		if err != nil {
			logger.Warn("Failed to load kubeconfig, will try in-cluster config", "error", err)
		}
	}

	if restConfig == nil {
		logger.Info("Attempting in-cluster Kubernetes configuration")
		restConfig, err = rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to build kubernetes config (tried kubeconfig and in-cluster): %w", err)
		}
	}

	return restConfig, nil
}
