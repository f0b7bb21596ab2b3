// Package contact creates a mail contact placeholder for a distribution
// group, preserving mail flow to the group's externally routable address
// while the group itself is migrated.
package contact
