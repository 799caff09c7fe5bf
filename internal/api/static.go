package api

import (
	"net/http"
	"path"
	"strings"
)

// SiteHandler serves the built site from dir. Requests for hidden paths,
// such as leftovers of an interrupted output swap, are answered 404.
func SiteHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, part := range strings.Split(path.Clean(r.URL.Path), "/") {
			if strings.HasPrefix(part, ".") {
				http.NotFound(w, r)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}
