package render

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Assets resolves record ids to image files named <id>.<ext> under Dir.
// The filter engine never calls this; only the renderer and the loader's
// keep hook do.
type Assets struct {
	Dir string
	Ext string
}

// FileName returns the asset file name for an id
func (a Assets) FileName(id string) string {
	return id + "." + strings.TrimPrefix(a.Ext, ".")
}

// Path returns the on-disk location, or "" when the id cannot name a file
func (a Assets) Path(id string) string {
	name := a.FileName(id)
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return ""
	}
	return filepath.Join(a.Dir, name)
}

// Exists reports whether the asset for id is a regular file
func (a Assets) Exists(id string) bool {
	path := a.Path(id)
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// URL returns the path the asset is served under
func (a Assets) URL(id string) string {
	return "/assets/" + url.PathEscape(a.FileName(id))
}
