package lesson

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

//go:embed content
var content embed.FS

// Builtin returns the lesson content compiled into the binary
func Builtin() fs.FS {
	sub, err := fs.Sub(content, "content")
	if err != nil {
		panic(err)
	}
	return sub
}

// Open loads the lessons under dir, or the built-in lessons when dir is empty
func Open(dir string) (*Registry, error) {
	fsys := Builtin()
	if dir != "" {
		fsys = os.DirFS(dir)
	}

	r := NewRegistry(NewLoader(fsys))
	if err := r.Load(); err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}
	return r, nil
}
