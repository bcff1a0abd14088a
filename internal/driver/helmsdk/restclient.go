package helmsdk

import (
	"sync"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// restClientGetter implements genericclioptions.RESTClientGetter for one
// namespace on top of a kubeconfig path.
type restClientGetter struct {
	clientConfig clientcmd.ClientConfig

	mu         sync.Mutex
	restConfig *rest.Config
}

// newRESTClientGetter builds a getter scoped to namespace. With an empty
// path the default loading rules apply (KUBECONFIG, ~/.kube/config, then
// in-cluster). The kubeconfig is read lazily on first use.
func newRESTClientGetter(path, namespace string) *restClientGetter {
	overrides := &clientcmd.ConfigOverrides{
		Context: clientcmdapi.Context{Namespace: namespace},
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path != "" {
		rules.ExplicitPath = path
	}
	return &restClientGetter{
		clientConfig: clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides),
	}
}

// ToRESTConfig returns the REST config, resolving it once.
func (g *restClientGetter) ToRESTConfig() (*rest.Config, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.restConfig != nil {
		return g.restConfig, nil
	}

	cfg, err := g.clientConfig.ClientConfig()
	if err != nil {
		return nil, err
	}
	g.restConfig = cfg
	return g.restConfig, nil
}

// ToDiscoveryClient returns a cached discovery client.
func (g *restClientGetter) ToDiscoveryClient() (discovery.CachedDiscoveryInterface, error) {
	restConfig, err := g.ToRESTConfig()
	if err != nil {
		return nil, err
	}

	dc, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, err
	}

	return memory.NewMemCacheClient(dc), nil
}

// ToRESTMapper returns a REST mapper for the cluster.
func (g *restClientGetter) ToRESTMapper() (meta.RESTMapper, error) {
	dc, err := g.ToDiscoveryClient()
	if err != nil {
		return nil, err
	}

	return restmapper.NewDeferredDiscoveryRESTMapper(dc), nil
}

// ToRawKubeConfigLoader returns the underlying clientcmd.ClientConfig.
func (g *restClientGetter) ToRawKubeConfigLoader() clientcmd.ClientConfig {
	return g.clientConfig
}
