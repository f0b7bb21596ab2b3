// Package convert migrates a directory-synchronized distribution group to a
// cloud-only group: it snapshots the group, removes it from synchronization
// scope, waits for the synced object to disappear, recreates the group under
// a temporary prefix, restores membership and send-as grants, and finally
// strips the prefix to restore the original identity.
package convert
