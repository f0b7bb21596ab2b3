package backup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	snapshotFileNameTemplateConstant          = "%s-%s.xml"
	snapshotSequencedFileNameTemplateConstant = "%s-%s-%d.xml"
	snapshotTimestampLayoutConstant           = "20060102T150405Z"
	snapshotFileExtensionConstant             = ".xml"
	snapshotFileNameSeparatorConstant         = "-"
	snapshotDirectoryPermissionsConstant      = 0o750
	snapshotFilePermissionsConstant           = 0o640
	directoryMissingMessageConstant           = "backup directory not configured"
	snapshotWriteErrorTemplateConstant        = "unable to write snapshot %s: %w"
	snapshotReadErrorTemplateConstant         = "unable to read snapshot %s: %w"
	snapshotDecodeErrorTemplateConstant       = "unable to decode snapshot %s: %w"
	snapshotEncodeErrorTemplateConstant       = "unable to encode snapshot: %w"
	noSnapshotFoundTemplateConstant           = "no snapshot found for %q in %s"
	xmlIndentationConstant                    = "  "
	firstSequenceNumberConstant               = 1
)

// ErrBackupDirectoryNotConfigured indicates a Store constructed without a directory.
var ErrBackupDirectoryNotConfigured = errors.New(directoryMissingMessageConstant)

// NoSnapshotError indicates no snapshot file exists for the requested identity.
type NoSnapshotError struct {
	Identity  string
	Directory string
}

// Error describes the missing snapshot.
func (noSnapshotError NoSnapshotError) Error() string {
	return fmt.Sprintf(noSnapshotFoundTemplateConstant, noSnapshotError.Identity, noSnapshotError.Directory)
}

// Store reads and writes snapshot files beneath a backup directory.
type Store struct {
	directory string
}

// NewStore constructs a snapshot store rooted at the provided directory.
func NewStore(directory string) (*Store, error) {
	trimmedDirectory := strings.TrimSpace(directory)
	if len(trimmedDirectory) == 0 {
		return nil, ErrBackupDirectoryNotConfigured
	}
	return &Store{directory: trimmedDirectory}, nil
}

// WriteSnapshot persists the snapshot under a timestamped file name and returns the path.
// Existing snapshot files are never overwritten: a name collision within the
// same capture second is disambiguated with a sequence suffix.
func (store *Store) WriteSnapshot(snapshot Snapshot) (string, error) {
	if creationError := os.MkdirAll(store.directory, snapshotDirectoryPermissionsConstant); creationError != nil {
		return "", fmt.Errorf(snapshotWriteErrorTemplateConstant, store.directory, creationError)
	}

	encodedSnapshot, encodingError := xml.MarshalIndent(snapshot, "", xmlIndentationConstant)
	if encodingError != nil {
		return "", fmt.Errorf(snapshotEncodeErrorTemplateConstant, encodingError)
	}
	documentContent := append([]byte(xml.Header), encodedSnapshot...)

	aliasComponent := sanitizeFileNameComponent(snapshot.GroupInfo.Alias)
	timestampComponent := snapshot.CapturedAt.UTC().Format(snapshotTimestampLayoutConstant)

	for sequenceNumber := firstSequenceNumberConstant; ; sequenceNumber++ {
		snapshotFileName := fmt.Sprintf(snapshotFileNameTemplateConstant, aliasComponent, timestampComponent)
		if sequenceNumber > firstSequenceNumberConstant {
			snapshotFileName = fmt.Sprintf(snapshotSequencedFileNameTemplateConstant, aliasComponent, timestampComponent, sequenceNumber)
		}
		snapshotPath := filepath.Join(store.directory, snapshotFileName)

		snapshotFile, openError := os.OpenFile(snapshotPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, snapshotFilePermissionsConstant)
		if errors.Is(openError, fs.ErrExist) {
			continue
		}
		if openError != nil {
			return "", fmt.Errorf(snapshotWriteErrorTemplateConstant, snapshotPath, openError)
		}

		_, writeError := snapshotFile.Write(documentContent)
		closeError := snapshotFile.Close()
		if writeError != nil {
			return "", fmt.Errorf(snapshotWriteErrorTemplateConstant, snapshotPath, writeError)
		}
		if closeError != nil {
			return "", fmt.Errorf(snapshotWriteErrorTemplateConstant, snapshotPath, closeError)
		}

		return snapshotPath, nil
	}
}

// ReadSnapshot loads and decodes the snapshot at the provided path.
func (store *Store) ReadSnapshot(snapshotPath string) (Snapshot, error) {
	snapshotContent, readError := os.ReadFile(snapshotPath)
	if readError != nil {
		return Snapshot{}, fmt.Errorf(snapshotReadErrorTemplateConstant, snapshotPath, readError)
	}

	var decodedSnapshot Snapshot
	decodeError := xml.Unmarshal(snapshotContent, &decodedSnapshot)
	if decodeError != nil {
		return Snapshot{}, fmt.Errorf(snapshotDecodeErrorTemplateConstant, snapshotPath, decodeError)
	}

	return decodedSnapshot, nil
}

// LatestSnapshotPath returns the newest snapshot file recorded for the identity.
// Only file names whose alias segment matches the identity exactly are
// considered; candidates are ordered by capture timestamp, then by the
// collision sequence suffix.
func (store *Store) LatestSnapshotPath(identity string) (string, error) {
	directoryEntries, readError := os.ReadDir(store.directory)
	if readError != nil {
		return "", fmt.Errorf(snapshotReadErrorTemplateConstant, store.directory, readError)
	}

	expectedPrefix := sanitizeFileNameComponent(aliasFromIdentity(identity)) + snapshotFileNameSeparatorConstant

	matchingCandidates := make([]snapshotFileCandidate, 0)
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			continue
		}
		candidate, parsed := parseSnapshotFileName(directoryEntry.Name(), expectedPrefix)
		if parsed {
			matchingCandidates = append(matchingCandidates, candidate)
		}
	}

	if len(matchingCandidates) == 0 {
		return "", NoSnapshotError{Identity: identity, Directory: store.directory}
	}

	sort.Slice(matchingCandidates, func(firstIndex, secondIndex int) bool {
		firstCandidate := matchingCandidates[firstIndex]
		secondCandidate := matchingCandidates[secondIndex]
		if firstCandidate.timestamp != secondCandidate.timestamp {
			return firstCandidate.timestamp < secondCandidate.timestamp
		}
		return firstCandidate.sequence < secondCandidate.sequence
	})

	return filepath.Join(store.directory, matchingCandidates[len(matchingCandidates)-1].fileName), nil
}

type snapshotFileCandidate struct {
	fileName  string
	timestamp string
	sequence  int
}

// parseSnapshotFileName accepts only <alias>-<timestamp>.xml and
// <alias>-<timestamp>-<sequence>.xml, keeping longer aliases that merely share
// the requested alias as a prefix out of the candidate set.
func parseSnapshotFileName(entryName string, expectedPrefix string) (snapshotFileCandidate, bool) {
	trimmedName := strings.TrimSuffix(entryName, snapshotFileExtensionConstant)
	if len(trimmedName) == len(entryName) || len(trimmedName) < len(expectedPrefix) {
		return snapshotFileCandidate{}, false
	}
	if !strings.EqualFold(trimmedName[:len(expectedPrefix)], expectedPrefix) {
		return snapshotFileCandidate{}, false
	}

	remainder := trimmedName[len(expectedPrefix):]
	timestampPart, sequencePart, sequencePresent := strings.Cut(remainder, snapshotFileNameSeparatorConstant)
	if _, timestampError := time.Parse(snapshotTimestampLayoutConstant, timestampPart); timestampError != nil {
		return snapshotFileCandidate{}, false
	}

	sequenceNumber := firstSequenceNumberConstant
	if sequencePresent {
		parsedSequence, sequenceError := strconv.Atoi(sequencePart)
		if sequenceError != nil || parsedSequence <= firstSequenceNumberConstant {
			return snapshotFileCandidate{}, false
		}
		sequenceNumber = parsedSequence
	}

	return snapshotFileCandidate{fileName: entryName, timestamp: timestampPart, sequence: sequenceNumber}, true
}

func aliasFromIdentity(identity string) string {
	aliasPart, _, separatorFound := strings.Cut(identity, "@")
	if separatorFound {
		return aliasPart
	}
	return identity
}

func sanitizeFileNameComponent(component string) string {
	sanitizedComponent := strings.Map(func(componentRune rune) rune {
		switch componentRune {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return componentRune
	}, strings.TrimSpace(component))

	if len(sanitizedComponent) == 0 {
		return "snapshot"
	}

	return sanitizedComponent
}
