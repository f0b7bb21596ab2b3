// Package naming derives and strips prefixed identities for distribution
// group migration: prefixed aliases, display names, and SMTP address local
// parts used while a conversion is in flight.
package naming
