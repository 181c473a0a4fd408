package server

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/corymhall/forthlsp/config"
	"github.com/corymhall/forthlsp/file"
	"github.com/corymhall/forthlsp/index"
	"github.com/corymhall/forthlsp/lsp"
	"golang.org/x/sync/errgroup"
)

// skipDir reports whether the scan and the watcher leave dir alone. Hidden
// directories and dependency trees are never part of the workspace sources.
func skipDir(root, dir string) bool {
	if dir == root {
		return false
	}
	name := filepath.Base(dir)
	return strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor"
}

// findSources walks root and returns the Forth sources below it in
// lexical order.
func findSources(ctx context.Context, root string, cfg config.Config) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are left out of the index
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if skipDir(root, path) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && file.KindForPath(path, config.FileName, cfg.Workspace.Extensions) == file.Forth {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// scanWorkspace reads and indexes every Forth source below root. Files are
// read and indexed in parallel; the documents come back in path order. On
// cancellation the files read so far are returned with the error.
func scanWorkspace(ctx context.Context, root string, cfg config.Config, progress *scanProgress) ([]*index.Document, []file.Handle, error) {
	paths, err := findSources(ctx, root, cfg)
	if err != nil {
		return nil, nil, err
	}
	progress.total.Store(int64(len(paths)))

	docs := make([]*index.Document, len(paths))
	handles := make([]file.Handle, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			uri := lsp.URIFromPath(path)
			fh, err := file.Read(gctx, uri)
			if err != nil {
				return err
			}
			progress.done.Add(1)
			content, err := fh.Content()
			if err != nil {
				// vanished or unreadable since the walk
				return nil
			}
			handles[i] = fh
			docs[i] = index.New(uri, 0, string(content))
			return nil
		})
	}
	err = g.Wait()

	var outDocs []*index.Document
	var outHandles []file.Handle
	for i := range docs {
		if docs[i] != nil {
			outDocs = append(outDocs, docs[i])
			outHandles = append(outHandles, handles[i])
		}
	}
	return outDocs, outHandles, err
}
