// Package packager turns a service's build context into the compressed
// archive the node's upload endpoint expects, filtering out development
// artifacts that must never ship.
package packager
