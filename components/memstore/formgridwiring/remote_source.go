// Package formgridwiring connects memstore collections to dynamic option
// fields.
package formgridwiring

import (
	"github.com/goliatone/go-formgrid/components/memstore"
	"github.com/goliatone/go-formgrid/pkg/schema"
)

// NameListSource returns the RemoteSource for a field whose options come from
// the nameList endpoint of collection, served under basePath with the
// memstore defaults (and any provided overrides).
//
// The generated source:
// - points at <basePath><RoutePath>/<collection>/nameList
// - maps option values from "id" and labels from "name"
func NameListSource(collection, basePath string, fns ...memstore.OptionFn) schema.RemoteSource {
	return schema.RemoteSource{
		Path:           memstore.MountPath(basePath, collection, fns...) + "/nameList",
		OptionValueKey: "id",
		OptionLabelKey: "name",
	}
}

// WithNameListSource returns field configured as a dynamic option field
// backed by collection's nameList.
func WithNameListSource(field schema.Field, collection, basePath string, fns ...memstore.OptionFn) schema.Field {
	src := NameListSource(collection, basePath, fns...)
	field.Kind = schema.KindDynamicOption
	field.RemoteSource = &src
	return field
}
