// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package kube

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/juju/loggo/v2"
	"k8s.io/klog/v2"
)

// klogSink is a logr.LogSink forwarding client-go logging onto loggo, so
// that it honours the levels configured for the poller.
type klogSink struct {
	logger loggo.Logger
	name   string
	values []interface{}
}

var _ logr.LogSink = (*klogSink)(nil)

func newKlogSink(logger loggo.Logger) *klogSink {
	return &klogSink{logger: logger}
}

// RouteKlog sends everything logged through klog to the
// "infrapoller.kubernetes.klog" logger.
func RouteKlog() {
	klog.SetLogger(logr.New(newKlogSink(loggo.GetLogger("infrapoller.kubernetes.klog"))))
}

// Init is part of the logr.LogSink interface.
func (k *klogSink) Init(logr.RuntimeInfo) {}

// Enabled is part of the logr.LogSink interface. Verbose klog output
// only passes when trace logging is enabled.
func (k *klogSink) Enabled(level int) bool {
	if level > 0 {
		return k.logger.IsTraceEnabled()
	}
	return k.logger.IsDebugEnabled()
}

// Info is part of the logr.LogSink interface.
func (k *klogSink) Info(level int, msg string, keysAndValues ...interface{}) {
	if level > 0 {
		k.logger.Tracef("%s", k.format(msg, keysAndValues))
		return
	}
	k.logger.Debugf("%s", k.format(msg, keysAndValues))
}

// Error is part of the logr.LogSink interface.
func (k *klogSink) Error(err error, msg string, keysAndValues ...interface{}) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	k.logger.Errorf("%s", k.format(msg, keysAndValues))
}

// WithValues is part of the logr.LogSink interface.
func (k *klogSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	copied := *k
	copied.values = append(append([]interface{}(nil), k.values...), keysAndValues...)
	return &copied
}

// WithName is part of the logr.LogSink interface.
func (k *klogSink) WithName(name string) logr.LogSink {
	copied := *k
	if copied.name != "" {
		name = copied.name + "/" + name
	}
	copied.name = name
	return &copied
}

func (k *klogSink) format(msg string, keysAndValues []interface{}) string {
	var b strings.Builder
	if k.name != "" {
		b.WriteString(k.name)
		b.WriteString(": ")
	}
	b.WriteString(msg)
	all := append(append([]interface{}(nil), k.values...), keysAndValues...)
	for i := 0; i < len(all); i += 2 {
		if i+1 < len(all) {
			fmt.Fprintf(&b, " %v=%v", all[i], all[i+1])
		} else {
			fmt.Fprintf(&b, " %v", all[i])
		}
	}
	return b.String()
}
