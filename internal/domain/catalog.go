package domain

// CatalogItem is the read-only projection of a catalog row owned by the
// catalog subsystem. The kernel only consumes it to snapshot current
// name/image data during order creation; prices are minor currency units.
type CatalogItem struct {
	ID       string
	Name     string
	Price    int64
	ImageURI string
}

// ProductSnapshot captures the catalog item's display data as it existed at
// order time. Orders keep their own copy so later catalog edits or deletions
// never rewrite history.
type ProductSnapshot struct {
	CatalogItemID string
	Name          string
	ImageURI      string
}
