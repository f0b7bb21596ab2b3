package backup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/grouplift/grouplift/internal/graphapi"
)

const (
	groupIdentityFieldNameConstant       = "group_identity"
	requiredValueMessageConstant         = "value required"
	gatewayMissingMessageConstant        = "directory gateway not configured"
	storeMissingMessageConstant          = "snapshot store not configured"
	groupLookupErrorTemplateConstant     = "unable to resolve group: %w"
	memberListErrorTemplateConstant      = "unable to list group members: %w"
	sendAsListErrorTemplateConstant      = "unable to list send-as permissions: %w"
	snapshotPersistErrorTemplateConstant = "unable to persist snapshot: %w"
)

// InvalidInputError describes export option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", inputError.FieldName, inputError.Message)
}

// DirectoryGateway describes the gateway operations required for snapshot export.
type DirectoryGateway interface {
	GetGroup(executionContext context.Context, identity string) (graphapi.DistributionGroup, error)
	ListGroupMembers(executionContext context.Context, groupIdentifier string) ([]graphapi.GroupMember, error)
	ListSendAsPermissions(executionContext context.Context, groupIdentifier string) ([]graphapi.SendAsPermission, error)
}

// SnapshotWriter persists assembled snapshots.
type SnapshotWriter interface {
	WriteSnapshot(snapshot Snapshot) (string, error)
}

// ServiceDependencies describes required collaborators for snapshot export.
type ServiceDependencies struct {
	Logger  *zap.Logger
	Gateway DirectoryGateway
	Store   SnapshotWriter
}

// ExportOptions configures a snapshot export.
type ExportOptions struct {
	GroupIdentity string
}

// ExportResult captures the observable outcomes of a snapshot export.
type ExportResult struct {
	SnapshotPath string
	GroupID      string
	MemberCount  int
	SendAsCount  int
}

// Service exports distribution group state to XML snapshots.
type Service struct {
	logger  *zap.Logger
	gateway DirectoryGateway
	store   SnapshotWriter
}

var (
	errGatewayMissing = errors.New(gatewayMissingMessageConstant)
	errStoreMissing   = errors.New(storeMissingMessageConstant)
)

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Gateway == nil {
		return nil, errGatewayMissing
	}
	if dependencies.Store == nil {
		return nil, errStoreMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{logger: logger, gateway: dependencies.Gateway, store: dependencies.Store}, nil
}

// Export captures the group, its members, and its send-as grants into a snapshot file.
func (service *Service) Export(executionContext context.Context, options ExportOptions) (ExportResult, error) {
	if len(strings.TrimSpace(options.GroupIdentity)) == 0 {
		return ExportResult{}, InvalidInputError{FieldName: groupIdentityFieldNameConstant, Message: requiredValueMessageConstant}
	}

	group, groupError := service.gateway.GetGroup(executionContext, options.GroupIdentity)
	if groupError != nil {
		return ExportResult{}, fmt.Errorf(groupLookupErrorTemplateConstant, groupError)
	}

	groupMembers, memberError := service.gateway.ListGroupMembers(executionContext, group.Identifier)
	if memberError != nil {
		return ExportResult{}, fmt.Errorf(memberListErrorTemplateConstant, memberError)
	}

	sendAsPermissions, sendAsError := service.gateway.ListSendAsPermissions(executionContext, group.Identifier)
	if sendAsError != nil {
		return ExportResult{}, fmt.Errorf(sendAsListErrorTemplateConstant, sendAsError)
	}

	snapshot := NewSnapshot(group, groupMembers, sendAsPermissions)

	snapshotPath, writeError := service.store.WriteSnapshot(snapshot)
	if writeError != nil {
		return ExportResult{}, fmt.Errorf(snapshotPersistErrorTemplateConstant, writeError)
	}

	return ExportResult{
		SnapshotPath: snapshotPath,
		GroupID:      group.Identifier,
		MemberCount:  len(groupMembers),
		SendAsCount:  len(sendAsPermissions),
	}, nil
}
