// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package leaderelection_test

import (
	"context"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"
	core "k8s.io/api/core/v1"
	meta "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/juju/infrapoller/internal/leaderelection"
)

const (
	testNamespace = "kube-system"
	leaderRaw     = `{"holderIdentity":"controller-0","leaseDurationSeconds":15,` +
		`"acquireTime":"2018-12-17T11:53:07Z","renewTime":"2018-12-18T12:32:22Z","leaderTransitions":2}`
)

type kubeSuite struct {
	testing.IsolationSuite

	client *fake.Clientset
	getter *leaderelection.Getter
}

var _ = gc.Suite(&kubeSuite{})

func (s *kubeSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.client = fake.NewSimpleClientset()
	s.getter = leaderelection.NewGetter(s.client, testclock.NewClock(time.Now()))
}

func (s *kubeSuite) objectMeta(name string, annotations map[string]string) meta.ObjectMeta {
	return meta.ObjectMeta{
		Name:        name,
		Namespace:   testNamespace,
		Annotations: annotations,
	}
}

func (s *kubeSuite) TestParseKind(c *gc.C) {
	kind, err := leaderelection.ParseKind("Endpoints")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(kind, gc.Equals, leaderelection.KindEndpoints)

	kind, err = leaderelection.ParseKind("configmap")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(kind, gc.Equals, leaderelection.KindConfigMap)

	_, err = leaderelection.ParseKind("lease")
	c.Check(err, jc.ErrorIs, errors.NotSupported)
}

func (s *kubeSuite) TestGetEndpoints(c *gc.C) {
	_, err := s.client.CoreV1().Endpoints(testNamespace).Create(context.Background(),
		&core.Endpoints{
			ObjectMeta: s.objectMeta("kube-controller-manager", map[string]string{
				"control-plane.alpha.kubernetes.io/leader": leaderRaw,
			}),
		},
		meta.CreateOptions{},
	)
	c.Assert(err, jc.ErrorIsNil)

	record, err := s.getter.Get(context.Background(), "endpoints", "kube-controller-manager", testNamespace)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(record.LeaderName(), gc.Equals, "controller-0")
	c.Check(record.Transitions(), gc.Equals, 2)
}

func (s *kubeSuite) TestGetConfigMap(c *gc.C) {
	_, err := s.client.CoreV1().ConfigMaps(testNamespace).Create(context.Background(),
		&core.ConfigMap{
			ObjectMeta: s.objectMeta("kube-scheduler", map[string]string{
				"control-plane.alpha.kubernetes.io/leader": leaderRaw,
			}),
		},
		meta.CreateOptions{},
	)
	c.Assert(err, jc.ErrorIsNil)

	record, err := s.getter.Get(context.Background(), "ConfigMap", "kube-scheduler", testNamespace)
	c.Assert(err, jc.ErrorIsNil)
	valid, _ := record.Validate()
	c.Check(valid, jc.IsTrue)
	c.Check(record.LeaseDuration(), gc.Equals, 15)
}

func (s *kubeSuite) TestGetMissingAnnotation(c *gc.C) {
	_, err := s.client.CoreV1().ConfigMaps(testNamespace).Create(context.Background(),
		&core.ConfigMap{
			ObjectMeta: s.objectMeta("kube-scheduler", map[string]string{"other": "value"}),
		},
		meta.CreateOptions{},
	)
	c.Assert(err, jc.ErrorIsNil)

	_, err = s.getter.Get(context.Background(), "configmap", "kube-scheduler", testNamespace)
	c.Check(err, jc.ErrorIs, errors.NotFound)
}

func (s *kubeSuite) TestGetMissingObject(c *gc.C) {
	_, err := s.getter.Get(context.Background(), "endpoints", "absent", testNamespace)
	c.Check(err, jc.ErrorIs, errors.NotFound)
}

func (s *kubeSuite) TestGetUnknownKind(c *gc.C) {
	_, err := s.getter.Get(context.Background(), "secret", "kube-scheduler", testNamespace)
	c.Check(err, jc.ErrorIs, errors.NotSupported)
	c.Check(err, gc.ErrorMatches, `leader election record kind "secret" not supported`)
}
