// Package clone creates a cloud-only copy of a directory-synchronized
// distribution group under a prefixed identity, duplicating membership and
// send-as grants without touching the source object.
package clone
