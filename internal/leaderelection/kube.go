// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package leaderelection

import (
	"context"
	"strings"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	meta "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

var logger = loggo.GetLogger("infrapoller.leaderelection")

// ElectionAnnotations are the known names of the leader election
// annotation, tried in order.
var ElectionAnnotations = []string{
	"control-plane.alpha.kubernetes.io/leader",
}

// Kind is the kind of Kubernetes object holding an election record.
type Kind string

const (
	KindEndpoints Kind = "endpoints"
	KindConfigMap Kind = "configmap"
)

// ParseKind returns the record kind named by s, ignoring case.
func ParseKind(s string) (Kind, error) {
	switch kind := Kind(strings.ToLower(s)); kind {
	case KindEndpoints, KindConfigMap:
		return kind, nil
	}
	return "", errors.NotSupportedf("leader election record kind %q", s)
}

// Getter reads leader election records from the Kubernetes API.
type Getter struct {
	client kubernetes.Interface
	clock  clock.Clock
}

// NewGetter returns a Getter using the given client. Records it returns
// compute their timing from clk.
func NewGetter(client kubernetes.Interface, clk clock.Clock) *Getter {
	return &Getter{
		client: client,
		clock:  clk,
	}
}

// Get fetches the object of the given kind and parses the election
// record held in its annotations.
func (g *Getter) Get(ctx context.Context, kind, name, namespace string) (*Record, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, errors.Trace(err)
	}

	var annotations map[string]string
	switch k {
	case KindEndpoints:
		obj, err := g.client.CoreV1().Endpoints(namespace).Get(ctx, name, meta.GetOptions{})
		if err != nil {
			return nil, convertError(err, kind, name, namespace)
		}
		annotations = obj.Annotations
	case KindConfigMap:
		obj, err := g.client.CoreV1().ConfigMaps(namespace).Get(ctx, name, meta.GetOptions{})
		if err != nil {
			return nil, convertError(err, kind, name, namespace)
		}
		annotations = obj.Annotations
	}

	for _, key := range ElectionAnnotations {
		if raw, ok := annotations[key]; ok {
			return NewRecord(raw, g.clock), nil
		}
	}
	return nil, errors.NotFoundf("leader election annotation on %s %s/%s", kind, namespace, name)
}

func convertError(err error, kind, name, namespace string) error {
	if k8serrors.IsNotFound(err) {
		return errors.NewNotFound(err, kind+" "+namespace+"/"+name)
	}
	return errors.Annotatef(err, "getting %s %s/%s", kind, namespace, name)
}
