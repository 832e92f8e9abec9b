// Package catalog is the client for the external item catalog. Pages are
// fetched concurrently in bounded windows and reassembled in page order.
package catalog
