package bq

import (
	"github.com/beanqueue/bq-go/internal/registry"
	"github.com/beanqueue/bq-go/internal/scanpkg"
)

// defaultHandlers is the process-wide registration target for Handle. A
// processor package calls Handle from an init function; whatever binary
// ends up importing that package (blank import is enough) carries its
// handlers automatically, the way database/sql drivers register themselves.
var defaultHandlers = scanpkg.NewStatic()

// Handle registers fn under (channel, module, name) in the process-wide
// default scanner returned by DefaultScanner. Processor packages call this
// from init(); PROCESSOR_PACKAGES in config only documents which packages a
// deployment expects to be linked in, since Go has no runtime import by
// name.
func Handle(channel, module, name string, fn registry.Func, opts ...ProcessorOption) *registry.Handler {
	h := registry.NewHandler(channel, module, name, fn)
	for _, opt := range opts {
		opt(h)
	}
	defaultHandlers.Register(scanpkg.Descriptor{Module: module, Name: name, Handler: h})
	return h
}

// DefaultScanner returns the scanner every Handle call feeds.
func DefaultScanner() scanpkg.Scanner {
	return defaultHandlers
}

// LoadHandlers scans s and adds every descriptor's handler to a's registry.
func (a *App) LoadHandlers(s scanpkg.Scanner, packages []string) error {
	descriptors, err := s.Scan(packages)
	if err != nil {
		return err
	}
	for _, d := range descriptors {
		a.Registry.Add(d.Handler)
	}
	return nil
}
