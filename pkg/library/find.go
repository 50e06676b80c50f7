package library

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"

	"github.com/tstromberg/fotoredo/pkg/photo"
)

// ErrUnsupportedSource marks files stored with a non-local provider.
var ErrUnsupportedSource = errors.New("unsupported source: not stored locally")

// found is the raw result of walking the library.
type found struct {
	local  []string
	remote []string
}

// find walks root recursively and sorts matching files into local and remote.
// Hidden files and directories are skipped.
func find(root string, exts []string, markers []string) (*found, error) {
	f := &found{}

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != root && strings.HasPrefix(filepath.Base(path), ".") {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}
			if de.IsDir() || !matchExt(path, exts) {
				return nil
			}

			if remote(root, path, markers) {
				klog.V(1).Infof("%s: %v", path, ErrUnsupportedSource)
				f.remote = append(f.remote, path)
				return nil
			}

			klog.V(1).Infof("found %s", path)
			f.local = append(f.local, path)
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			klog.Warningf("skipping %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})

	return f, err
}

func matchExt(path string, exts []string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return ext != "" && slices.Contains(exts, ext)
}

// remote reports whether a path component below root names a cloud provider folder.
func remote(root, path string, markers []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		for _, m := range markers {
			if strings.EqualFold(part, m) {
				return true
			}
		}
	}
	return false
}

// info reads metadata for path, falling back to the image header when the
// metadata reader fails. Errors from both are logged, never returned.
func info(path string, mr photo.MetadataReader) photo.Info {
	i, err := mr.ReadInfo(path)
	if err != nil {
		klog.Warningf("metadata for %s: %v", path, err)
		if i, err = (photo.HeaderReader{}).ReadInfo(path); err != nil {
			klog.Warningf("header for %s: %v", path, err)
			i = photo.Info{Path: path}
		}
	}
	i.Path = path

	if fi, err := os.Stat(path); err == nil {
		i.ModTime = fi.ModTime()
	} else {
		klog.Warningf("stat failure: %v", err)
	}
	return i
}
