// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package kube builds clients for the Kubernetes API.
package kube

import (
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

var logger = loggo.GetLogger("infrapoller.kubernetes")

// Config selects the cluster to talk to.
type Config struct {
	// KubeConfig is the path of a kubeconfig file. When empty, the
	// in-cluster service account is used.
	KubeConfig string

	// Context overrides the current context of KubeConfig.
	Context string
}

var inClusterConfig = rest.InClusterConfig

// RESTConfig returns the client configuration described by cfg.
func RESTConfig(cfg Config) (*rest.Config, error) {
	if cfg.KubeConfig == "" {
		logger.Debugf("using in-cluster kubernetes configuration")
		restConfig, err := inClusterConfig()
		if err != nil {
			return nil, errors.Annotate(err, "loading in-cluster kubernetes configuration")
		}
		return restConfig, nil
	}

	logger.Debugf("using kubernetes configuration from %q", cfg.KubeConfig)
	rules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: cfg.KubeConfig}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: cfg.Context}
	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, errors.Annotatef(err, "loading kubernetes configuration %q", cfg.KubeConfig)
	}
	return restConfig, nil
}

// NewClient returns a clientset for the cluster described by cfg.
func NewClient(cfg Config) (kubernetes.Interface, error) {
	restConfig, err := RESTConfig(cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	client, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, errors.Annotate(err, "creating kubernetes client")
	}
	return client, nil
}
