package clone

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/grouplift/grouplift/internal/graphapi"
	"github.com/grouplift/grouplift/internal/naming"
)

const (
	sourceIdentityFieldNameConstant     = "source_identity"
	requiredValueMessageConstant        = "value required"
	gatewayMissingMessageConstant       = "directory gateway not configured"
	notSyncedMessageTemplateConstant    = "group %q is not directory-synchronized; nothing to clone"
	targetExistsMessageTemplateConstant = "recipient %q already exists as %s"
	sourceLookupErrorTemplateConstant   = "unable to resolve source group: %w"
	collisionCheckErrorTemplateConstant = "unable to check clone identity: %w"
	groupCreationErrorTemplateConstant  = "unable to create clone group: %w"
	memberListErrorTemplateConstant     = "unable to list source members: %w"
	memberCopyErrorTemplateConstant     = "unable to add member %s: %w"
	sendAsListErrorTemplateConstant     = "unable to list send-as permissions: %w"
	sendAsCopyErrorTemplateConstant     = "unable to grant send-as to %s: %w"
	cloneCreatedMessageConstant         = "Clone group created"
	logFieldCloneIdentifierConstant     = "clone_id"
	logFieldCloneAddressConstant        = "clone_address"
)

// InvalidInputError describes clone option validation failures.
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

// TargetExistsError indicates the derived clone identity is already taken.
type TargetExistsError struct {
	Identity      string
	RecipientType string
}

// Error describes the colliding recipient.
func (existsError TargetExistsError) Error() string {
	return fmt.Sprintf(targetExistsMessageTemplateConstant, existsError.Identity, existsError.RecipientType)
}

// DirectoryGateway describes the gateway operations required for cloning.
type DirectoryGateway interface {
	GetGroup(executionContext context.Context, identity string) (graphapi.DistributionGroup, error)
	ResolveRecipient(executionContext context.Context, identity string) (graphapi.RecipientResolution, error)
	CreateGroup(executionContext context.Context, settings graphapi.GroupSettings) (graphapi.DistributionGroup, error)
	ListGroupMembers(executionContext context.Context, groupIdentifier string) ([]graphapi.GroupMember, error)
	AddGroupMember(executionContext context.Context, groupIdentifier string, memberAddress string) error
	ListSendAsPermissions(executionContext context.Context, groupIdentifier string) ([]graphapi.SendAsPermission, error)
	AddSendAsPermission(executionContext context.Context, groupIdentifier string, trustee string) error
}

// ServiceDependencies describes required collaborators for cloning.
type ServiceDependencies struct {
	Logger  *zap.Logger
	Gateway DirectoryGateway
}

// CloneOptions configures a clone operation.
type CloneOptions struct {
	SourceIdentity string
	Prefix         string
	CopySendAs     bool
}

// CloneResult captures the observable outcomes of a clone.
type CloneResult struct {
	CloneID      string
	CloneAddress string
	MemberCount  int
	SendAsCount  int
}

// Service creates prefixed cloud-only copies of synced distribution groups.
type Service struct {
	logger  *zap.Logger
	gateway DirectoryGateway
}

var errGatewayMissing = errors.New(gatewayMissingMessageConstant)

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Gateway == nil {
		return nil, errGatewayMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{logger: logger, gateway: dependencies.Gateway}, nil
}

// Clone copies the source group, its members, and optionally its send-as
// grants into a new cloud-only group under the prefixed identity.
func (service *Service) Clone(executionContext context.Context, options CloneOptions) (CloneResult, error) {
	if len(strings.TrimSpace(options.SourceIdentity)) == 0 {
		return CloneResult{}, InvalidInputError{FieldName: sourceIdentityFieldNameConstant, Message: requiredValueMessageConstant}
	}

	sourceGroup, sourceError := service.gateway.GetGroup(executionContext, options.SourceIdentity)
	if sourceError != nil {
		return CloneResult{}, fmt.Errorf(sourceLookupErrorTemplateConstant, sourceError)
	}

	if !sourceGroup.DirectorySynced {
		return CloneResult{}, NotSyncedError{Identity: options.SourceIdentity}
	}

	cloneIdentity, identityError := naming.ApplyPrefix(
		naming.GroupIdentity{
			DisplayName:        sourceGroup.DisplayName,
			Alias:              sourceGroup.Alias,
			PrimarySMTPAddress: sourceGroup.PrimarySMTPAddress,
		},
		options.Prefix,
	)
	if identityError != nil {
		return CloneResult{}, identityError
	}

	resolution, resolutionError := service.gateway.ResolveRecipient(executionContext, cloneIdentity.Alias)
	if resolutionError != nil {
		return CloneResult{}, fmt.Errorf(collisionCheckErrorTemplateConstant, resolutionError)
	}
	if resolution.Found {
		return CloneResult{}, TargetExistsError{Identity: cloneIdentity.Alias, RecipientType: resolution.RecipientType}
	}

	cloneGroup, creationError := service.gateway.CreateGroup(executionContext, graphapi.GroupSettings{
		DisplayName:                 cloneIdentity.DisplayName,
		Alias:                       cloneIdentity.Alias,
		PrimarySMTPAddress:          cloneIdentity.PrimarySMTPAddress,
		Notes:                       sourceGroup.Notes,
		HiddenFromAddressLists:      sourceGroup.HiddenFromAddressLists,
		RequireSenderAuthentication: sourceGroup.RequireSenderAuthentication,
		ManagedBy:                   sourceGroup.ManagedBy,
	})
	if creationError != nil {
		return CloneResult{}, fmt.Errorf(groupCreationErrorTemplateConstant, creationError)
	}

	service.logger.Info(
		cloneCreatedMessageConstant,
		zap.String(logFieldCloneIdentifierConstant, cloneGroup.Identifier),
		zap.String(logFieldCloneAddressConstant, cloneIdentity.PrimarySMTPAddress),
	)

	sourceMembers, memberError := service.gateway.ListGroupMembers(executionContext, sourceGroup.Identifier)
	if memberError != nil {
		return CloneResult{}, fmt.Errorf(memberListErrorTemplateConstant, memberError)
	}

	for _, sourceMember := range sourceMembers {
		if additionError := service.gateway.AddGroupMember(executionContext, cloneGroup.Identifier, sourceMember.PrimarySMTPAddress); additionError != nil {
			return CloneResult{}, fmt.Errorf(memberCopyErrorTemplateConstant, sourceMember.PrimarySMTPAddress, additionError)
		}
	}

	sendAsCount := 0
	if options.CopySendAs {
		sendAsPermissions, sendAsError := service.gateway.ListSendAsPermissions(executionContext, sourceGroup.Identifier)
		if sendAsError != nil {
			return CloneResult{}, fmt.Errorf(sendAsListErrorTemplateConstant, sendAsError)
		}

		for _, permission := range sendAsPermissions {
			if grantError := service.gateway.AddSendAsPermission(executionContext, cloneGroup.Identifier, permission.Trustee); grantError != nil {
				return CloneResult{}, fmt.Errorf(sendAsCopyErrorTemplateConstant, permission.Trustee, grantError)
			}
		}

		sendAsCount = len(sendAsPermissions)
	}

	return CloneResult{
		CloneID:      cloneGroup.Identifier,
		CloneAddress: cloneIdentity.PrimarySMTPAddress,
		MemberCount:  len(sourceMembers),
		SendAsCount:  sendAsCount,
	}, nil
}
