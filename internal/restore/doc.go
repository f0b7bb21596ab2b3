// Package restore recreates a distribution group from an XML snapshot,
// covering recovery after a conversion that failed once the synced object
// had already left the directory.
package restore
