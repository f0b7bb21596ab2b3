package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/grouplift/grouplift/internal/backup"
	"github.com/grouplift/grouplift/internal/graphapi"
	"github.com/grouplift/grouplift/internal/naming"
	"github.com/grouplift/grouplift/internal/polling"
)

const (
	sourceIdentityFieldNameConstant        = "source_identity"
	requiredValueMessageConstant           = "value required"
	gatewayMissingMessageConstant          = "directory gateway not configured"
	storeMissingMessageConstant            = "snapshot store not configured"
	waiterMissingMessageConstant           = "consistency waiter not configured"
	notSyncedMessageTemplateConstant       = "group %q is not directory-synchronized; nothing to convert"
	sourceLookupErrorTemplateConstant      = "unable to resolve source group: %w"
	memberListErrorTemplateConstant        = "unable to list source members: %w"
	sendAsListErrorTemplateConstant        = "unable to list send-as permissions: %w"
	snapshotPersistErrorTemplateConstant   = "unable to persist snapshot: %w"
	exclusionErrorTemplateConstant         = "unable to exclude group from synchronization: %w"
	disappearanceWaitErrorTemplateConstant = "synced group did not leave the directory: %w"
	groupCreationErrorTemplateConstant     = "unable to recreate group: %w"
	visibilityWaitErrorTemplateConstant    = "recreated group never became visible: %w"
	memberRestoreErrorTemplateConstant     = "unable to re-add member %s: %w"
	sendAsRestoreErrorTemplateConstant     = "unable to re-grant send-as to %s: %w"
	prefixStripErrorTemplateConstant       = "unable to restore original identity: %w"
	disappearanceConditionConstant         = "source group removed from directory"
	visibilityConditionConstant            = "recreated group visible in directory"
	snapshotWrittenMessageConstant         = "Snapshot written"
	exclusionStampedMessageConstant        = "Synchronization exclusion stamped"
	groupRecreatedMessageConstant          = "Group recreated cloud-only"
	identityRestoredMessageConstant        = "Original identity restored"
	logFieldSnapshotPathConstant           = "snapshot_path"
	logFieldGroupIdentifierConstant        = "group_id"
	logFieldTemporaryAddressConstant       = "temporary_address"
	logFieldOriginalAddressConstant        = "original_address"
)

// InvalidInputError describes convert option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", inputError.FieldName, inputError.Message)
}

// NotSyncedError indicates the source group is already cloud-only.
type NotSyncedError struct {
	Identity string
}

// Error describes the unsynchronized source group.
func (notSyncedError NotSyncedError) Error() string {
	return fmt.Sprintf(notSyncedMessageTemplateConstant, notSyncedError.Identity)
}

// DirectoryGateway describes the gateway operations required for conversion.
type DirectoryGateway interface {
	GetGroup(executionContext context.Context, identity string) (graphapi.DistributionGroup, error)
	ResolveRecipient(executionContext context.Context, identity string) (graphapi.RecipientResolution, error)
	CreateGroup(executionContext context.Context, settings graphapi.GroupSettings) (graphapi.DistributionGroup, error)
	UpdateGroup(executionContext context.Context, groupIdentifier string, update graphapi.GroupUpdate) error
	SetSyncExclusion(executionContext context.Context, groupIdentifier string, attributeValue string) error
	ListGroupMembers(executionContext context.Context, groupIdentifier string) ([]graphapi.GroupMember, error)
	AddGroupMember(executionContext context.Context, groupIdentifier string, memberAddress string) error
	ListSendAsPermissions(executionContext context.Context, groupIdentifier string) ([]graphapi.SendAsPermission, error)
	AddSendAsPermission(executionContext context.Context, groupIdentifier string, trustee string) error
}

// SnapshotWriter persists assembled snapshots.
type SnapshotWriter interface {
	WriteSnapshot(snapshot backup.Snapshot) (string, error)
}

// ConsistencyWaiter blocks until a directory condition holds.
type ConsistencyWaiter interface {
	WaitUntil(executionContext context.Context, condition string, probe polling.Probe) error
}

// ServiceDependencies describes required collaborators for conversion.
type ServiceDependencies struct {
	Logger  *zap.Logger
	Gateway DirectoryGateway
	Store   SnapshotWriter
	Waiter  ConsistencyWaiter
}

// ConvertOptions configures a conversion.
type ConvertOptions struct {
	SourceIdentity string
	Prefix         string
	ExclusionValue string
}

// ConvertResult captures the observable outcomes of a conversion.
type ConvertResult struct {
	SnapshotPath string
	GroupID      string
	GroupAddress string
	MemberCount  int
	SendAsCount  int
}

// Service converts synced distribution groups to cloud-only groups.
type Service struct {
	logger  *zap.Logger
	gateway DirectoryGateway
	store   SnapshotWriter
	waiter  ConsistencyWaiter
}

var (
	errGatewayMissing = errors.New(gatewayMissingMessageConstant)
	errStoreMissing   = errors.New(storeMissingMessageConstant)
	errWaiterMissing  = errors.New(waiterMissingMessageConstant)
)

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Gateway == nil {
		return nil, errGatewayMissing
	}
	if dependencies.Store == nil {
		return nil, errStoreMissing
	}
	if dependencies.Waiter == nil {
		return nil, errWaiterMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:  logger,
		gateway: dependencies.Gateway,
		store:   dependencies.Store,
		waiter:  dependencies.Waiter,
	}, nil
}

// Convert runs the full migration. A failure after the exclusion attribute is
// stamped leaves the snapshot on disk; restore is the recovery path.
func (service *Service) Convert(executionContext context.Context, options ConvertOptions) (ConvertResult, error) {
	if len(strings.TrimSpace(options.SourceIdentity)) == 0 {
		return ConvertResult{}, InvalidInputError{FieldName: sourceIdentityFieldNameConstant, Message: requiredValueMessageConstant}
	}

	sourceGroup, sourceError := service.gateway.GetGroup(executionContext, options.SourceIdentity)
	if sourceError != nil {
		return ConvertResult{}, fmt.Errorf(sourceLookupErrorTemplateConstant, sourceError)
	}

	if !sourceGroup.DirectorySynced {
		return ConvertResult{}, NotSyncedError{Identity: options.SourceIdentity}
	}

	sourceMembers, memberError := service.gateway.ListGroupMembers(executionContext, sourceGroup.Identifier)
	if memberError != nil {
		return ConvertResult{}, fmt.Errorf(memberListErrorTemplateConstant, memberError)
	}

	sendAsPermissions, sendAsError := service.gateway.ListSendAsPermissions(executionContext, sourceGroup.Identifier)
	if sendAsError != nil {
		return ConvertResult{}, fmt.Errorf(sendAsListErrorTemplateConstant, sendAsError)
	}

	snapshot := backup.NewSnapshot(sourceGroup, sourceMembers, sendAsPermissions)
	snapshotPath, writeError := service.store.WriteSnapshot(snapshot)
	if writeError != nil {
		return ConvertResult{}, fmt.Errorf(snapshotPersistErrorTemplateConstant, writeError)
	}

	service.logger.Info(snapshotWrittenMessageConstant, zap.String(logFieldSnapshotPathConstant, snapshotPath))

	if exclusionError := service.gateway.SetSyncExclusion(executionContext, sourceGroup.Identifier, options.ExclusionValue); exclusionError != nil {
		return ConvertResult{}, fmt.Errorf(exclusionErrorTemplateConstant, exclusionError)
	}

	service.logger.Info(exclusionStampedMessageConstant, zap.String(logFieldGroupIdentifierConstant, sourceGroup.Identifier))

	originalIdentity := naming.GroupIdentity{
		DisplayName:        sourceGroup.DisplayName,
		Alias:              sourceGroup.Alias,
		PrimarySMTPAddress: sourceGroup.PrimarySMTPAddress,
	}

	disappearanceError := service.waiter.WaitUntil(executionContext, disappearanceConditionConstant, func(probeContext context.Context) (bool, error) {
		resolution, resolutionError := service.gateway.ResolveRecipient(probeContext, originalIdentity.PrimarySMTPAddress)
		if resolutionError != nil {
			return false, resolutionError
		}
		return !resolution.Found, nil
	})
	if disappearanceError != nil {
		return ConvertResult{SnapshotPath: snapshotPath}, fmt.Errorf(disappearanceWaitErrorTemplateConstant, disappearanceError)
	}

	temporaryIdentity, identityError := naming.ApplyPrefix(originalIdentity, options.Prefix)
	if identityError != nil {
		return ConvertResult{SnapshotPath: snapshotPath}, identityError
	}

	temporarySettings := snapshot.GroupSettings()
	temporarySettings.DisplayName = temporaryIdentity.DisplayName
	temporarySettings.Alias = temporaryIdentity.Alias
	temporarySettings.PrimarySMTPAddress = temporaryIdentity.PrimarySMTPAddress

	recreatedGroup, creationError := service.gateway.CreateGroup(executionContext, temporarySettings)
	if creationError != nil {
		return ConvertResult{SnapshotPath: snapshotPath}, fmt.Errorf(groupCreationErrorTemplateConstant, creationError)
	}

	service.logger.Info(
		groupRecreatedMessageConstant,
		zap.String(logFieldGroupIdentifierConstant, recreatedGroup.Identifier),
		zap.String(logFieldTemporaryAddressConstant, temporaryIdentity.PrimarySMTPAddress),
	)

	visibilityError := service.waiter.WaitUntil(executionContext, visibilityConditionConstant, func(probeContext context.Context) (bool, error) {
		resolution, resolutionError := service.gateway.ResolveRecipient(probeContext, temporaryIdentity.PrimarySMTPAddress)
		if resolutionError != nil {
			return false, resolutionError
		}
		return resolution.Found, nil
	})
	if visibilityError != nil {
		return ConvertResult{SnapshotPath: snapshotPath}, fmt.Errorf(visibilityWaitErrorTemplateConstant, visibilityError)
	}

	for _, memberAddress := range snapshot.MemberAddresses() {
		if additionError := service.gateway.AddGroupMember(executionContext, recreatedGroup.Identifier, memberAddress); additionError != nil {
			return ConvertResult{SnapshotPath: snapshotPath}, fmt.Errorf(memberRestoreErrorTemplateConstant, memberAddress, additionError)
		}
	}

	for _, trustee := range snapshot.SendAsTrustees {
		if grantError := service.gateway.AddSendAsPermission(executionContext, recreatedGroup.Identifier, trustee); grantError != nil {
			return ConvertResult{SnapshotPath: snapshotPath}, fmt.Errorf(sendAsRestoreErrorTemplateConstant, trustee, grantError)
		}
	}

	restoredProxyAddresses := []string{naming.PrimaryProxyAddress(originalIdentity.PrimarySMTPAddress)}
	for _, preservedAddress := range naming.WithoutProxyAddress(snapshot.GroupInfo.EmailAddresses, originalIdentity.PrimarySMTPAddress) {
		restoredProxyAddresses = append(restoredProxyAddresses, naming.SecondaryProxyAddress(naming.ProxyAddressValue(preservedAddress)))
	}

	identityUpdate := graphapi.GroupUpdate{
		DisplayName:        &originalIdentity.DisplayName,
		Alias:              &originalIdentity.Alias,
		PrimarySMTPAddress: &originalIdentity.PrimarySMTPAddress,
		EmailAddresses:     &restoredProxyAddresses,
	}
	if updateError := service.gateway.UpdateGroup(executionContext, recreatedGroup.Identifier, identityUpdate); updateError != nil {
		return ConvertResult{SnapshotPath: snapshotPath}, fmt.Errorf(prefixStripErrorTemplateConstant, updateError)
	}

	service.logger.Info(
		identityRestoredMessageConstant,
		zap.String(logFieldGroupIdentifierConstant, recreatedGroup.Identifier),
		zap.String(logFieldOriginalAddressConstant, originalIdentity.PrimarySMTPAddress),
	)

	return ConvertResult{
		SnapshotPath: snapshotPath,
		GroupID:      recreatedGroup.Identifier,
		GroupAddress: originalIdentity.PrimarySMTPAddress,
		MemberCount:  len(snapshot.Members),
		SendAsCount:  len(snapshot.SendAsTrustees),
	}, nil
}
