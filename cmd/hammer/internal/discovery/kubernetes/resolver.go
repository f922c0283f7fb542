package kubernetes

import (
	"context"
	"fmt"
	"time"

	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/core"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/cache"
)

// K8sResolver finds the target Service through a namespace-scoped informer.
type K8sResolver struct {
	store     cache.Store
	namespace string
	service   string
	portName  string
}

// NewK8sResolver starts a Service informer in namespace and waits for its
// cache to sync. The informer stops when ctx is done.
func NewK8sResolver(ctx context.Context, clientset kubernetes.Interface, namespace, service, portName string) (*K8sResolver, error) {
	factory := informers.NewSharedInformerFactoryWithOptions(clientset, 10*time.Minute,
		informers.WithNamespace(namespace))
	serviceInformer := factory.Core().V1().Services().Informer()

	factory.Start(ctx.Done())
	for typ, synced := range factory.WaitForCacheSync(ctx.Done()) {
		if !synced {
			return nil, fmt.Errorf("failed to sync %v informer cache", typ)
		}
	}

	return &K8sResolver{
		store:     serviceInformer.GetStore(),
		namespace: namespace,
		service:   service,
		portName:  portName,
	}, nil
}

// Resolve returns <service>.<namespace>.svc.cluster.local:<port>. The port
// is the one named portName, or the first port when portName is empty.
func (r *K8sResolver) Resolve(ctx context.Context) (string, error) {
	key := r.namespace + "/" + r.service
	obj, exists, err := r.store.GetByKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to look up service %s: %w", key, err)
	}
	if !exists {
		return "", fmt.Errorf("%w: service %s", core.ErrTargetNotFound, key)
	}
	svc, ok := obj.(*corev1.Service)
	if !ok {
		return "", fmt.Errorf("unexpected object %T in service cache", obj)
	}

	port, err := r.selectPort(svc)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s.%s.svc.cluster.local:%d", svc.Name, svc.Namespace, port), nil
}

func (r *K8sResolver) selectPort(svc *corev1.Service) (int32, error) {
	if len(svc.Spec.Ports) == 0 {
		return 0, fmt.Errorf("%w: service %s/%s exposes no ports", core.ErrTargetNotFound, svc.Namespace, svc.Name)
	}
	if r.portName == "" {
		return svc.Spec.Ports[0].Port, nil
	}
	for _, p := range svc.Spec.Ports {
		if p.Name == r.portName {
			return p.Port, nil
		}
	}
	return 0, fmt.Errorf("%w: service %s/%s has no port named %q", core.ErrTargetNotFound, svc.Namespace, svc.Name, r.portName)
}
