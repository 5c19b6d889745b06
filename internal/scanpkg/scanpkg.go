// Package scanpkg discovers handler registrations. The core only depends on
// the Scanner interface; Static is the explicit-registration implementation
// this module ships, standing in for the source's runtime package scanner
// (Go has no reflection-based package scanning equivalent).
package scanpkg

import "github.com/beanqueue/bq-go/internal/registry"

// Descriptor names one handler registration site.
type Descriptor struct {
	Module  string
	Name    string
	Handler *registry.Handler
}

// Scanner yields the handler descriptors found across a set of package
// names. The packages argument is advisory — Static's implementation ignores it
// and returns everything registered, since Go has no runtime notion of
// "packages to scan".
type Scanner interface {
	Scan(packages []string) ([]Descriptor, error)
}
