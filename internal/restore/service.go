package restore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/grouplift/grouplift/internal/backup"
	"github.com/grouplift/grouplift/internal/graphapi"
	"github.com/grouplift/grouplift/internal/polling"
)

const (
	groupIdentityFieldNameConstant      = "group_identity"
	requiredValueMessageConstant        = "value required"
	gatewayMissingMessageConstant       = "directory gateway not configured"
	storeMissingMessageConstant         = "snapshot store not configured"
	waiterMissingMessageConstant        = "consistency waiter not configured"
	targetExistsMessageTemplateConstant = "recipient %q already exists as %s; restore never overwrites"
	snapshotLookupErrorTemplateConstant = "unable to locate snapshot: %w"
	snapshotReadErrorTemplateConstant   = "unable to read snapshot: %w"
	existenceCheckErrorTemplateConstant = "unable to check restore target: %w"
	groupCreationErrorTemplateConstant  = "unable to recreate group: %w"
	visibilityWaitErrorTemplateConstant = "restored group never became visible: %w"
	memberRestoreErrorTemplateConstant  = "unable to re-add member %s: %w"
	sendAsRestoreErrorTemplateConstant  = "unable to re-grant send-as to %s: %w"
	visibilityConditionConstant         = "restored group visible in directory"
	snapshotLoadedMessageConstant       = "Snapshot loaded"
	groupRestoredMessageConstant        = "Group restored"
	logFieldSnapshotPathConstant        = "snapshot_path"
	logFieldGroupIdentifierConstant     = "group_id"
	logFieldGroupAddressConstant        = "group_address"
)

// InvalidInputError describes restore option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", inputError.FieldName, inputError.Message)
}

// TargetExistsError indicates the restore target already exists in the directory.
type TargetExistsError struct {
	Identity      string
	RecipientType string
}

// Error describes the colliding recipient.
func (existsError TargetExistsError) Error() string {
	return fmt.Sprintf(targetExistsMessageTemplateConstant, existsError.Identity, existsError.RecipientType)
}

// DirectoryGateway describes the gateway operations required for restoration.
type DirectoryGateway interface {
	ResolveRecipient(executionContext context.Context, identity string) (graphapi.RecipientResolution, error)
	CreateGroup(executionContext context.Context, settings graphapi.GroupSettings) (graphapi.DistributionGroup, error)
	AddGroupMember(executionContext context.Context, groupIdentifier string, memberAddress string) error
	AddSendAsPermission(executionContext context.Context, groupIdentifier string, trustee string) error
}

// SnapshotReader locates and loads persisted snapshots.
type SnapshotReader interface {
	ReadSnapshot(snapshotPath string) (backup.Snapshot, error)
	LatestSnapshotPath(identity string) (string, error)
}

// ConsistencyWaiter blocks until a directory condition holds.
type ConsistencyWaiter interface {
	WaitUntil(executionContext context.Context, condition string, probe polling.Probe) error
}

// ServiceDependencies describes required collaborators for restoration.
type ServiceDependencies struct {
	Logger  *zap.Logger
	Gateway DirectoryGateway
	Store   SnapshotReader
	Waiter  ConsistencyWaiter
}

// RestoreOptions configures a restoration. SnapshotPath overrides the
// newest-snapshot lookup for the group identity.
type RestoreOptions struct {
	GroupIdentity string
	SnapshotPath  string
}

// RestoreResult captures the observable outcomes of a restoration.
type RestoreResult struct {
	SnapshotPath string
	GroupID      string
	GroupAddress string
	MemberCount  int
	SendAsCount  int
}

// Service recreates distribution groups from snapshots.
type Service struct {
	logger  *zap.Logger
	gateway DirectoryGateway
	store   SnapshotReader
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

// Restore recreates the group recorded in the snapshot under its original
// identity, then re-adds membership and send-as grants.
func (service *Service) Restore(executionContext context.Context, options RestoreOptions) (RestoreResult, error) {
	snapshotPath := strings.TrimSpace(options.SnapshotPath)
	if len(snapshotPath) == 0 {
		if len(strings.TrimSpace(options.GroupIdentity)) == 0 {
			return RestoreResult{}, InvalidInputError{FieldName: groupIdentityFieldNameConstant, Message: requiredValueMessageConstant}
		}

		locatedPath, lookupError := service.store.LatestSnapshotPath(options.GroupIdentity)
		if lookupError != nil {
			return RestoreResult{}, fmt.Errorf(snapshotLookupErrorTemplateConstant, lookupError)
		}
		snapshotPath = locatedPath
	}

	snapshot, readError := service.store.ReadSnapshot(snapshotPath)
	if readError != nil {
		return RestoreResult{}, fmt.Errorf(snapshotReadErrorTemplateConstant, readError)
	}

	originalAddress := snapshot.GroupInfo.PrimarySMTPAddress

	service.logger.Info(
		snapshotLoadedMessageConstant,
		zap.String(logFieldSnapshotPathConstant, snapshotPath),
		zap.String(logFieldGroupAddressConstant, originalAddress),
	)

	resolution, resolutionError := service.gateway.ResolveRecipient(executionContext, originalAddress)
	if resolutionError != nil {
		return RestoreResult{}, fmt.Errorf(existenceCheckErrorTemplateConstant, resolutionError)
	}
	if resolution.Found {
		return RestoreResult{}, TargetExistsError{Identity: originalAddress, RecipientType: resolution.RecipientType}
	}

	restoredGroup, creationError := service.gateway.CreateGroup(executionContext, snapshot.GroupSettings())
	if creationError != nil {
		return RestoreResult{}, fmt.Errorf(groupCreationErrorTemplateConstant, creationError)
	}

	visibilityError := service.waiter.WaitUntil(executionContext, visibilityConditionConstant, func(probeContext context.Context) (bool, error) {
		probeResolution, probeError := service.gateway.ResolveRecipient(probeContext, originalAddress)
		if probeError != nil {
			return false, probeError
		}
		return probeResolution.Found, nil
	})
	if visibilityError != nil {
		return RestoreResult{}, fmt.Errorf(visibilityWaitErrorTemplateConstant, visibilityError)
	}

	for _, memberAddress := range snapshot.MemberAddresses() {
		if additionError := service.gateway.AddGroupMember(executionContext, restoredGroup.Identifier, memberAddress); additionError != nil {
			return RestoreResult{}, fmt.Errorf(memberRestoreErrorTemplateConstant, memberAddress, additionError)
		}
	}

	for _, trustee := range snapshot.SendAsTrustees {
		if grantError := service.gateway.AddSendAsPermission(executionContext, restoredGroup.Identifier, trustee); grantError != nil {
			return RestoreResult{}, fmt.Errorf(sendAsRestoreErrorTemplateConstant, trustee, grantError)
		}
	}

	service.logger.Info(
		groupRestoredMessageConstant,
		zap.String(logFieldGroupIdentifierConstant, restoredGroup.Identifier),
		zap.String(logFieldGroupAddressConstant, originalAddress),
	)

	return RestoreResult{
		SnapshotPath: snapshotPath,
		GroupID:      restoredGroup.Identifier,
		GroupAddress: originalAddress,
		MemberCount:  len(snapshot.Members),
		SendAsCount:  len(snapshot.SendAsTrustees),
	}, nil
}
