package consoleweb

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-formgrid/pkg/console"
)

// Mux is the minimal interface required to mount the console. It is
// satisfied by chi.Router.
type Mux interface {
	Mount(pattern string, handler http.Handler)
}

// RegisterRoutes mounts the console for screens under basePath + RoutePath
// and returns the mount prefix.
func RegisterRoutes(mux Mux, basePath string, screens []*console.Screen, fns ...OptionFn) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, screens, NewOptions(fns...))
}

// RegisterRoutesWithOptions mounts the console using a pre-built Options
// value.
func RegisterRoutesWithOptions(mux Mux, basePath string, screens []*console.Screen, opts Options) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("consoleweb: missing mux")
	}
	if len(screens) == 0 {
		return "", fmt.Errorf("consoleweb: no screens")
	}
	opts = NewOptions(func(o *Options) { *o = opts })
	prefix := mountPath(basePath, opts.RoutePath)
	h, err := HandlerWithOptions(prefix, screens, opts)
	if err != nil {
		return "", err
	}
	mux.Mount(prefix, h)
	return prefix, nil
}

func mountPath(basePath, routePath string) string {
	join := func(p string) string {
		p = strings.TrimSpace(p)
		if p == "" || p == "/" {
			return ""
		}
		return "/" + strings.Trim(p, "/")
	}
	out := join(basePath) + join(routePath)
	if out == "" {
		return "/"
	}
	return out
}
