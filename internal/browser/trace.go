package browser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// TracePolicy decides which trace archives are kept.
type TracePolicy int

// Trace policies
const (
	TraceOff TracePolicy = iota
	TraceOnFailure
	TraceAlways
)

// ParseTracePolicy reads PW_TRACE style values. Blank means on-failure.
func ParseTracePolicy(s string) (TracePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "false", "0", "none":
		return TraceOff, nil
	case "", "on-failure", "fail", "failed", "retain-on-failure":
		return TraceOnFailure, nil
	case "always", "on", "all":
		return TraceAlways, nil
	default:
		return TraceOff, fmt.Errorf("unknown trace policy %q: want off, on-failure or always", s)
	}
}

func (p TracePolicy) String() string {
	switch p {
	case TraceOnFailure:
		return "on-failure"
	case TraceAlways:
		return "always"
	default:
		return "off"
	}
}

// Keep reports whether a trace from a test with this verdict is written.
func (p TracePolicy) Keep(failed bool) bool {
	return p == TraceAlways || (p == TraceOnFailure && failed)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName turns a test name such as "TestLogin/locked_out" into something
// usable as a file name.
func SafeName(name string) string {
	return strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
}

// Recorder records one context's trace for one test.
type Recorder struct {
	ctx    Context
	policy TracePolicy
	path   string
	active bool
}

// StartRecorder begins tracing unless the policy is off. The archive, if
// kept, is written to dir/<test>.zip.
func StartRecorder(ctx Context, policy TracePolicy, dir, test string) (*Recorder, error) {
	r := &Recorder{
		ctx:    ctx,
		policy: policy,
		path:   filepath.Join(dir, SafeName(test)+".zip"),
	}
	if policy == TraceOff {
		return r, nil
	}
	if err := ctx.StartTracing(test); err != nil {
		return nil, fmt.Errorf("failed to start tracing: %w", err)
	}
	r.active = true
	return r, nil
}

// Stop ends tracing once the verdict is known. It returns the archive path,
// or "" when the trace was discarded. Stop is idempotent.
func (r *Recorder) Stop(failed bool) (string, error) {
	if !r.active {
		return "", nil
	}
	r.active = false

	path := ""
	if r.policy.Keep(failed) {
		path = r.path
	}
	if err := r.ctx.StopTracing(path); err != nil {
		return "", fmt.Errorf("failed to stop tracing: %w", err)
	}
	return path, nil
}
