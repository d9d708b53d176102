// scanner is used to scan a workspace for host documents.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("mosaic.scanner")

// HostExtensions are the file suffixes of documents that embed style and
// script regions.
var HostExtensions = []string{".html", ".htm", ".blade.php"}

var ignoredDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
}

// IsHostFile reports whether path names a host document.
func IsHostFile(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range HostExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// IgnoreDir reports whether a directory is left out of the walk.
func IgnoreDir(name string) bool {
	return strings.HasPrefix(name, ".") || ignoredDirs[name]
}

// Scan walks the subtree under root. Directories whose name begins with "."
// are skipped entirely, as are files that are not host documents. For each
// remaining file the skip predicate is applied, and if it returns false the
// file is read and callback(path, contents) is invoked. Callbacks run on a
// single goroutine, one at a time. Scan returns once all callbacks have
// completed.
func Scan(
	ctx context.Context,
	root string,
	skip func(path string, info fs.FileInfo) bool,
	callback func(path string, contents []byte),
) error {
	fileCh := make(chan string, 100)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for path := range fileCh {
			data, err := os.ReadFile(path)
			if err != nil {
				log.Warningf("read error: %s: %v", path, err)
				continue
			}
			callback(path, data)
		}
	}()

	log.Infof("scanning %q", root)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			log.Warningf("walk error: %v", err)
			return nil
		}

		if d.IsDir() {
			if path != root && IgnoreDir(d.Name()) {
				log.Debugf("skipping %q", path)
				return fs.SkipDir
			}
			return nil
		}
		if !IsHostFile(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if skip != nil && skip(path, info) {
			return nil
		}

		select {
		case fileCh <- path:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	close(fileCh)
	wg.Wait()
	return err
}
