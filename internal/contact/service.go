package contact

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
	sourceIdentityFieldNameConstant      = "source_identity"
	routingDomainFieldNameConstant       = "routing_domain"
	requiredValueMessageConstant         = "value required"
	gatewayMissingMessageConstant        = "directory gateway not configured"
	targetExistsMessageTemplateConstant  = "recipient %q already exists as %s"
	sourceLookupErrorTemplateConstant    = "unable to resolve source group: %w"
	collisionCheckErrorTemplateConstant  = "unable to check contact identity: %w"
	contactCreationErrorTemplateConstant = "unable to create mail contact: %w"
	contactCreatedMessageConstant        = "Mail contact created"
	logFieldContactIdentifierConstant    = "contact_id"
	logFieldExternalAddressConstant      = "external_address"
)

// InvalidInputError describes contact option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", inputError.FieldName, inputError.Message)
}

// TargetExistsError indicates the derived contact identity is already taken.
type TargetExistsError struct {
	Identity      string
	RecipientType string
}

// Error describes the colliding recipient.
func (existsError TargetExistsError) Error() string {
	return fmt.Sprintf(targetExistsMessageTemplateConstant, existsError.Identity, existsError.RecipientType)
}

// DirectoryGateway describes the gateway operations required for contact creation.
type DirectoryGateway interface {
	GetGroup(executionContext context.Context, identity string) (graphapi.DistributionGroup, error)
	ResolveRecipient(executionContext context.Context, identity string) (graphapi.RecipientResolution, error)
	CreateContact(executionContext context.Context, settings graphapi.ContactSettings) (graphapi.MailContact, error)
}

// ServiceDependencies describes required collaborators for contact creation.
type ServiceDependencies struct {
	Logger  *zap.Logger
	Gateway DirectoryGateway
}

// ContactOptions configures a contact creation.
type ContactOptions struct {
	SourceIdentity       string
	Prefix               string
	RoutingDomain        string
	HideFromAddressLists bool
}

// ContactResult captures the observable outcomes of a contact creation.
type ContactResult struct {
	ContactID       string
	ContactAlias    string
	ExternalAddress string
}

// Service creates mail contact placeholders for migrated groups.
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

// Create provisions a mail contact whose external address routes to the
// group's address on the configured routing domain.
func (service *Service) Create(executionContext context.Context, options ContactOptions) (ContactResult, error) {
	if len(strings.TrimSpace(options.SourceIdentity)) == 0 {
		return ContactResult{}, InvalidInputError{FieldName: sourceIdentityFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.RoutingDomain)) == 0 {
		return ContactResult{}, InvalidInputError{FieldName: routingDomainFieldNameConstant, Message: requiredValueMessageConstant}
	}

	sourceGroup, sourceError := service.gateway.GetGroup(executionContext, options.SourceIdentity)
	if sourceError != nil {
		return ContactResult{}, fmt.Errorf(sourceLookupErrorTemplateConstant, sourceError)
	}

	contactIdentity, identityError := naming.ApplyPrefix(
		naming.GroupIdentity{
			DisplayName:        sourceGroup.DisplayName,
			Alias:              sourceGroup.Alias,
			PrimarySMTPAddress: sourceGroup.PrimarySMTPAddress,
		},
		options.Prefix,
	)
	if identityError != nil {
		return ContactResult{}, identityError
	}

	resolution, resolutionError := service.gateway.ResolveRecipient(executionContext, contactIdentity.Alias)
	if resolutionError != nil {
		return ContactResult{}, fmt.Errorf(collisionCheckErrorTemplateConstant, resolutionError)
	}
	if resolution.Found {
		return ContactResult{}, TargetExistsError{Identity: contactIdentity.Alias, RecipientType: resolution.RecipientType}
	}

	externalAddress, addressError := naming.RoutedAddress(sourceGroup.PrimarySMTPAddress, options.RoutingDomain)
	if addressError != nil {
		return ContactResult{}, addressError
	}

	mailContact, creationError := service.gateway.CreateContact(executionContext, graphapi.ContactSettings{
		DisplayName:            sourceGroup.DisplayName,
		Alias:                  contactIdentity.Alias,
		ExternalEmailAddress:   externalAddress,
		HiddenFromAddressLists: options.HideFromAddressLists,
	})
	if creationError != nil {
		return ContactResult{}, fmt.Errorf(contactCreationErrorTemplateConstant, creationError)
	}

	service.logger.Info(
		contactCreatedMessageConstant,
		zap.String(logFieldContactIdentifierConstant, mailContact.Identifier),
		zap.String(logFieldExternalAddressConstant, externalAddress),
	)

	return ContactResult{
		ContactID:       mailContact.Identifier,
		ContactAlias:    contactIdentity.Alias,
		ExternalAddress: externalAddress,
	}, nil
}
