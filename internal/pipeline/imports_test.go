package pipeline

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const modulePath = "spectrogram"

// cgoLibraries are the C-backed modules only the binary may link.
var cgoLibraries = []string{
	"github.com/gordonklaus/portaudio",
	"github.com/veandco/go-sdl2",
}

// moduleImports records in seen the non-test imports of pkg and of every
// package it reaches inside this module.
func moduleImports(t *testing.T, root, pkg string, seen map[string][]string) {
	t.Helper()
	if _, ok := seen[pkg]; ok {
		return
	}
	seen[pkg] = nil

	dir := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(pkg, modulePath)))
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	fset := token.NewFileSet()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, spec := range f.Imports {
			path, _ := strconv.Unquote(spec.Path.Value)
			seen[pkg] = append(seen[pkg], path)
			if path == modulePath || strings.HasPrefix(path, modulePath+"/") {
				moduleImports(t, root, path, seen)
			}
		}
	}
}

// The handoff, transport and terminal packages must build on a machine
// without libportaudio or libSDL2; only main wires the C backends in.
func TestCoreImportsStayCgoFree(t *testing.T) {
	root, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatal(err)
	}

	for _, pkg := range []string{
		modulePath + "/internal/pipeline",
		modulePath + "/internal/transport",
		modulePath + "/internal/transport/udp",
		modulePath + "/internal/tui",
		modulePath + "/internal/audio",
		modulePath + "/internal/render",
	} {
		seen := make(map[string][]string)
		moduleImports(t, root, pkg, seen)
		for from, imports := range seen {
			for _, path := range imports {
				if path == "C" {
					t.Errorf("%s (via %s) uses cgo directly", pkg, from)
				}
				for _, lib := range cgoLibraries {
					if path == lib || strings.HasPrefix(path, lib+"/") {
						t.Errorf("%s links %s via %s", pkg, lib, from)
					}
				}
			}
		}
	}
}

// The backends still exist, so the check above is not vacuous.
func TestBackendsImportCgoLibraries(t *testing.T) {
	root, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		modulePath + "/internal/audio/portaudio": cgoLibraries[0],
		modulePath + "/internal/audio/sdl":       cgoLibraries[1] + "/sdl",
		modulePath + "/internal/render/sdl":      cgoLibraries[1] + "/sdl",
	}
	for pkg, lib := range want {
		seen := make(map[string][]string)
		moduleImports(t, root, pkg, seen)
		found := false
		for _, path := range seen[pkg] {
			found = found || path == lib
		}
		if !found {
			t.Errorf("%s does not import %s", pkg, lib)
		}
	}
}
