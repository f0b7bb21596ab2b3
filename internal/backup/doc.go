// Package backup captures distribution group state as XML snapshots holding
// group information, membership, and send-as grants, and restores snapshots
// from disk. Convert writes snapshots before touching the directory; restore
// replays them after a failed conversion.
package backup
