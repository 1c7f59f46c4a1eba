package dashboard

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".svg":  "image/svg+xml",
}

// serveStatic answers every request no API route claimed with a file from
// the public root. Paths resolving outside the root are forbidden.
func (s *Server) serveStatic(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	reqPath := c.Request.URL.Path
	if reqPath == "" || reqPath == "/" {
		reqPath = "/index.html"
	}

	root, err := filepath.Abs(s.publicDir)
	if err != nil {
		s.log.WithComponent("static").WithError(err).Error("failed to resolve public dir")
		c.JSON(http.StatusNotFound, errorResponse{Error: "Not found"})
		return
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	target := filepath.Join(root, filepath.FromSlash(strings.TrimLeft(reqPath, "/")))
	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		target = resolved
	}

	if !within(root, target) {
		s.log.WithComponent("static").WithField("path", c.Request.URL.Path).Warn("rejected path outside public dir")
		c.JSON(http.StatusForbidden, errorResponse{Error: "Forbidden"})
		return
	}

	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.WithComponent("static").WithError(err).Debug("stat failed")
		}
		c.JSON(http.StatusNotFound, errorResponse{Error: "Not found"})
		return
	}

	body, err := os.ReadFile(target)
	if err != nil {
		s.log.WithComponent("static").WithError(err).Warn("failed to read static file")
		c.JSON(http.StatusNotFound, errorResponse{Error: "Not found"})
		return
	}

	c.Data(http.StatusOK, contentType(target), body)
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
