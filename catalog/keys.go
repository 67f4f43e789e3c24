package catalog

import "fmt"

// Cache keys and tags follow a fixed scheme so bulk invalidation can
// target one establishment, or one resource kind within it, without
// enumerating keys:
//
//	establishment-<id>-category-list          full category list
//	establishment-<id>-category-<cid>         one category
//	establishment-<id>-category-filtered-<f>  a filtered view
//
// Every entry carries the establishment tag; list and filtered entries
// additionally carry a per-establishment kind tag.

// ListKey returns the cache key for an establishment's category list.
func ListKey(establishmentID int64) string {
	return fmt.Sprintf("establishment-%d-category-list", establishmentID)
}

// DetailKey returns the cache key for a single category.
func DetailKey(establishmentID, categoryID int64) string {
	return fmt.Sprintf("establishment-%d-category-%d", establishmentID, categoryID)
}

// FilterKey returns the cache key for a filtered category view. The
// filter string must be a stable representation of the filter (callers
// typically use a sorted query encoding).
func FilterKey(establishmentID int64, filter string) string {
	return fmt.Sprintf("establishment-%d-category-filtered-%s", establishmentID, filter)
}

// EstablishmentTag tags every entry belonging to one establishment.
func EstablishmentTag(establishmentID int64) string {
	return fmt.Sprintf("establishment-%d", establishmentID)
}

// listTag tags the list and filtered views of one establishment. Detail
// entries are excluded so a list refresh does not drop them.
func listTag(establishmentID int64) string {
	return fmt.Sprintf("establishment-%d-lists", establishmentID)
}
