package memstore

import (
	"fmt"
	"net/http"
	"strings"
)

// Mux is the minimal interface required to mount the store handler.
// It is satisfied by chi.Router.
type Mux interface {
	Mount(pattern string, handler http.Handler)
}

// MountPath returns the full mount path for a collection under basePath.
func MountPath(basePath, collection string, fns ...OptionFn) string {
	opts := NewOptions(fns...)
	return mountPath(basePath, opts.RoutePath) + "/" + strings.Trim(collection, "/")
}

// RegisterRoutes mounts the store handler under basePath + RoutePath.
func RegisterRoutes(mux Mux, basePath string, store *Store, fns ...OptionFn) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, store, NewOptions(fns...))
}

// RegisterRoutesWithOptions mounts the store handler using a pre-built
// Options value.
func RegisterRoutesWithOptions(mux Mux, basePath string, store *Store, opts Options) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("memstore: missing mux")
	}
	if store == nil {
		return "", fmt.Errorf("memstore: missing store")
	}
	opts = NewOptions(func(o *Options) { *o = opts })
	prefix := mountPath(basePath, opts.RoutePath)
	mux.Mount(prefix, HandlerWithOptions(store, opts))
	return prefix, nil
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}
	routePath = strings.TrimRight(routePath, "/")

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
