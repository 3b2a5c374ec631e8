// Package model holds the mission-design record types.
//
// The types are declared as CUE data under schemas/ and compiled into a
// compiler.Registry at first use. Cross-field invariants that cannot be
// expressed declaratively are registered in Go (see Checks) and bound by
// name from {func: "<name>"} check declarations.
package model

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"

	"cuelang.org/go/cue/build"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/joe/internal/compiler"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

var (
	once     sync.Once
	registry *compiler.Registry
	loadErr  error
)

// Registry returns the compiled domain registry. The embedded
// declarations are compiled once per process.
func Registry() (*compiler.Registry, error) {
	once.Do(func() {
		registry, loadErr = Load(schemaFS, "schemas")
	})
	return registry, loadErr
}

// MustRegistry is like Registry but panics on error.
func MustRegistry() *compiler.Registry {
	reg, err := Registry()
	if err != nil {
		panic(err)
	}
	return reg
}

// Load compiles every .cue file in dir of fsys as one CUE package, with
// the domain checks available to {func} declarations.
func Load(fsys fs.FS, dir string) (*compiler.Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && path.Ext(e.Name()) == ".cue" {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no CUE files in %s", dir)
	}
	sort.Strings(names)

	inst := build.NewContext().NewInstance(dir, nil)
	for _, name := range names {
		file := path.Join(dir, name)
		src, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		if err := inst.AddFile(file, src); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
	}

	v := cuecontext.New().BuildInstance(inst)
	return compiler.Compile(v, Checks())
}
