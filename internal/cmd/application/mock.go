package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/blobtable"
	"github.com/agentstation/blobtable/pkg/atlas"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value.
//
// Example Usage:
//
//	mock := &application.Mock{
//	    OutputFormatFunc: func() string { return "json" },
//	}
//	cmd := annotate.NewCommand(mock)
type Mock struct {
	RegistryFunc     func() (*atlas.Registry, error)
	AnnotatorFunc    func(opts ...blobtable.Option) (blobtable.Annotator, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Registry returns the mock registry, or the embedded atlases.
func (m *Mock) Registry() (*atlas.Registry, error) {
	if m.RegistryFunc != nil {
		return m.RegistryFunc()
	}
	return atlas.Embedded()
}

// Annotator returns the mock annotator, or a default one built from opts.
func (m *Mock) Annotator(opts ...blobtable.Option) (blobtable.Annotator, error) {
	if m.AnnotatorFunc != nil {
		return m.AnnotatorFunc(opts...)
	}
	return blobtable.New(opts...)
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builder using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
