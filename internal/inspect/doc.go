// Package inspect renders XML snapshot files as human-readable tables.
package inspect
