// Package printing contains the label printing bounded context.
// It resolves canonical SKU variants for sellable products, snapshots them
// together with their price and sales figures into immutable print jobs, and
// defines the collaborators the application layer depends on.
package printing
