// Package report collects what a run leaves behind: named artifacts per
// test, the run manifest and environment, and test verdicts. Attaching is
// fire-and-forget; a broken sink never fails a test.
package report

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Kind is an artifact's content type.
type Kind string

// Artifact kinds
const (
	KindText Kind = "text"
	KindPNG  Kind = "png"
	KindHTML Kind = "html"
	KindZip  Kind = "zip"
	KindJSON Kind = "json"
)

// Ext is the file extension artifacts of this kind are stored with.
func (k Kind) Ext() string {
	switch k {
	case KindText:
		return ".txt"
	case KindPNG, KindHTML, KindZip, KindJSON:
		return "." + string(k)
	default:
		return ".bin"
	}
}

// ContentType is the MIME type served for this kind.
func (k Kind) ContentType() string {
	switch k {
	case KindText:
		return "text/plain; charset=utf-8"
	case KindPNG:
		return "image/png"
	case KindHTML:
		return "text/html; charset=utf-8"
	case KindZip:
		return "application/zip"
	case KindJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// KindForExt maps a stored file's extension back to its kind.
func KindForExt(ext string) Kind {
	for _, k := range []Kind{KindText, KindPNG, KindHTML, KindZip, KindJSON} {
		if strings.EqualFold(k.Ext(), ext) {
			return k
		}
	}
	return ""
}

// Artifact is one named piece of evidence tagged to a test.
type Artifact struct {
	Test string
	Name string
	Kind Kind
	Data []byte
}

// Sink stores artifacts.
type Sink interface {
	Attach(a Artifact) error
}

type multi []Sink

// Multi fans each artifact out to every sink. All sinks are tried; their
// errors are joined.
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multi) Attach(a Artifact) error {
	var errs []error
	for _, s := range m {
		if err := s.Attach(a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Attach stores a on sink, logging and swallowing any failure.
func Attach(log *zap.Logger, sink Sink, a Artifact) {
	if sink == nil {
		return
	}
	if err := sink.Attach(a); err != nil {
		log.Warn("failed to attach artifact",
			zap.String("test", a.Test),
			zap.String("name", a.Name),
			zap.Error(err),
		)
		return
	}
	log.Debug("artifact attached", zap.String("name", a.Name), zap.String("kind", string(a.Kind)), zap.Int("bytes", len(a.Data)))
}

// AttachFile reads path and attaches its content. Failures are logged and
// swallowed like Attach.
func AttachFile(log *zap.Logger, sink Sink, test, name string, kind Kind, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("failed to read artifact", zap.String("path", path), zap.Error(err))
		return
	}
	Attach(log, sink, Artifact{Test: test, Name: name, Kind: kind, Data: data})
}

// Text builds a text artifact.
func Text(test, name, format string, args ...any) Artifact {
	return Artifact{Test: test, Name: name, Kind: KindText, Data: []byte(fmt.Sprintf(format, args...))}
}
