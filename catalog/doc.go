// Package catalog caches establishment menu categories on top of the
// generic cache: typed accessors for category lists, single categories,
// and filtered views, with a fixed key scheme that supports invalidating
// one establishment (or its derived views) in a single call.
package catalog
