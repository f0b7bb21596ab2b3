package graphapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	distributionGroupsPathConstant      = "/distributionGroups"
	distributionGroupPathTemplate       = "/distributionGroups/%s"
	groupMembersPathTemplateConstant    = "/distributionGroups/%s/members"
	sendAsPermissionsPathTemplate       = "/distributionGroups/%s/sendAsPermissions"
	mailContactsPathConstant            = "/mailContacts"
	mailContactPathTemplateConstant     = "/mailContacts/%s"
	recipientsPathTemplateConstant      = "/recipients/%s"
	authorizationHeaderNameConstant     = "Authorization"
	authorizationHeaderTemplateConstant = "Bearer %s"
	requestIdentifierHeaderNameConstant = "client-request-id"
	contentTypeHeaderNameConstant       = "Content-Type"
	acceptHeaderNameConstant            = "Accept"
	jsonContentTypeConstant             = "application/json"
	identityFieldNameConstant           = "identity"
	groupIdentifierFieldNameConstant    = "group_id"
	memberAddressFieldNameConstant      = "member_address"
	trusteeFieldNameConstant            = "trustee"
	requiredValueMessageConstant        = "value required"
	defaultRequestTimeoutConstant       = 2 * time.Minute
	gatewayErrorReadLimitConstant       = 1 << 16

	getGroupOperationNameConstant         = OperationName("GetGroup")
	createGroupOperationNameConstant      = OperationName("CreateGroup")
	updateGroupOperationNameConstant      = OperationName("UpdateGroup")
	deleteGroupOperationNameConstant      = OperationName("DeleteGroup")
	listGroupMembersOperationNameConstant = OperationName("ListGroupMembers")
	addGroupMemberOperationNameConstant   = OperationName("AddGroupMember")
	listSendAsOperationNameConstant       = OperationName("ListSendAsPermissions")
	addSendAsOperationNameConstant        = OperationName("AddSendAsPermission")
	setSyncExclusionOperationNameConstant = OperationName("SetSyncExclusion")
	getContactOperationNameConstant       = OperationName("GetContact")
	createContactOperationNameConstant    = OperationName("CreateContact")
	resolveRecipientOperationNameConstant = OperationName("ResolveRecipient")
)

// ClientConfiguration carries the inputs required to construct a Client.
type ClientConfiguration struct {
	BaseURL       string
	TokenProvider TokenProvider
	HTTPClient    *http.Client
}

// Client coordinates REST calls against the directory and mail administration gateway.
type Client struct {
	baseURL       string
	tokenProvider TokenProvider
	httpClient    *http.Client
}

// NewClient constructs a gateway client from the provided configuration.
func NewClient(configuration ClientConfiguration) (*Client, error) {
	trimmedBaseURL := strings.TrimRight(strings.TrimSpace(configuration.BaseURL), "/")
	if len(trimmedBaseURL) == 0 {
		return nil, ErrBaseURLNotConfigured
	}
	if configuration.TokenProvider == nil {
		return nil, ErrTokenProviderNotConfigured
	}

	httpClient := configuration.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeoutConstant}
	}

	return &Client{baseURL: trimmedBaseURL, tokenProvider: configuration.TokenProvider, httpClient: httpClient}, nil
}

// GetGroup retrieves a distribution group by identity (alias or SMTP address).
func (client *Client) GetGroup(executionContext context.Context, identity string) (DistributionGroup, error) {
	trimmedIdentity := strings.TrimSpace(identity)
	if len(trimmedIdentity) == 0 {
		return DistributionGroup{}, InvalidInputError{FieldName: identityFieldNameConstant, Message: requiredValueMessageConstant}
	}

	var group DistributionGroup
	requestPath := fmt.Sprintf(distributionGroupPathTemplate, url.PathEscape(trimmedIdentity))
	executionError := client.executeRequest(executionContext, getGroupOperationNameConstant, http.MethodGet, requestPath, trimmedIdentity, nil, &group)
	if executionError != nil {
		return DistributionGroup{}, executionError
	}

	return group, nil
}

// CreateGroup creates a cloud-only distribution group from the provided settings.
func (client *Client) CreateGroup(executionContext context.Context, settings GroupSettings) (DistributionGroup, error) {
	if len(strings.TrimSpace(settings.Alias)) == 0 {
		return DistributionGroup{}, InvalidInputError{FieldName: identityFieldNameConstant, Message: requiredValueMessageConstant}
	}

	var createdGroup DistributionGroup
	executionError := client.executeRequest(executionContext, createGroupOperationNameConstant, http.MethodPost, distributionGroupsPathConstant, settings.Alias, settings, &createdGroup)
	if executionError != nil {
		return DistributionGroup{}, executionError
	}

	return createdGroup, nil
}

// UpdateGroup applies a partial update to an existing distribution group.
func (client *Client) UpdateGroup(executionContext context.Context, groupIdentifier string, update GroupUpdate) error {
	trimmedIdentifier := strings.TrimSpace(groupIdentifier)
	if len(trimmedIdentifier) == 0 {
		return InvalidInputError{FieldName: groupIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	requestPath := fmt.Sprintf(distributionGroupPathTemplate, url.PathEscape(trimmedIdentifier))
	return client.executeRequest(executionContext, updateGroupOperationNameConstant, http.MethodPatch, requestPath, trimmedIdentifier, update, nil)
}

// DeleteGroup removes a distribution group.
func (client *Client) DeleteGroup(executionContext context.Context, groupIdentifier string) error {
	trimmedIdentifier := strings.TrimSpace(groupIdentifier)
	if len(trimmedIdentifier) == 0 {
		return InvalidInputError{FieldName: groupIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	requestPath := fmt.Sprintf(distributionGroupPathTemplate, url.PathEscape(trimmedIdentifier))
	return client.executeRequest(executionContext, deleteGroupOperationNameConstant, http.MethodDelete, requestPath, trimmedIdentifier, nil, nil)
}

// ListGroupMembers enumerates group members, following gateway paging links.
func (client *Client) ListGroupMembers(executionContext context.Context, groupIdentifier string) ([]GroupMember, error) {
	trimmedIdentifier := strings.TrimSpace(groupIdentifier)
	if len(trimmedIdentifier) == 0 {
		return nil, InvalidInputError{FieldName: groupIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	members := make([]GroupMember, 0)
	requestURL := client.baseURL + fmt.Sprintf(groupMembersPathTemplateConstant, url.PathEscape(trimmedIdentifier))

	for len(requestURL) > 0 {
		var page struct {
			Value    []GroupMember `json:"value"`
			NextLink string        `json:"@odata.nextLink"`
		}

		executionError := client.executeAbsoluteRequest(executionContext, listGroupMembersOperationNameConstant, http.MethodGet, requestURL, trimmedIdentifier, nil, &page)
		if executionError != nil {
			return nil, executionError
		}

		members = append(members, page.Value...)
		requestURL = page.NextLink
	}

	return members, nil
}

// AddGroupMember adds a recipient to a distribution group by SMTP address.
func (client *Client) AddGroupMember(executionContext context.Context, groupIdentifier string, memberAddress string) error {
	trimmedIdentifier := strings.TrimSpace(groupIdentifier)
	if len(trimmedIdentifier) == 0 {
		return InvalidInputError{FieldName: groupIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedMemberAddress := strings.TrimSpace(memberAddress)
	if len(trimmedMemberAddress) == 0 {
		return InvalidInputError{FieldName: memberAddressFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payload := struct {
		EmailAddress string `json:"emailAddress"`
	}{EmailAddress: trimmedMemberAddress}

	requestPath := fmt.Sprintf(groupMembersPathTemplateConstant, url.PathEscape(trimmedIdentifier))
	return client.executeRequest(executionContext, addGroupMemberOperationNameConstant, http.MethodPost, requestPath, trimmedMemberAddress, payload, nil)
}

// ListSendAsPermissions enumerates send-as grants on a distribution group.
func (client *Client) ListSendAsPermissions(executionContext context.Context, groupIdentifier string) ([]SendAsPermission, error) {
	trimmedIdentifier := strings.TrimSpace(groupIdentifier)
	if len(trimmedIdentifier) == 0 {
		return nil, InvalidInputError{FieldName: groupIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	var response struct {
		Value []SendAsPermission `json:"value"`
	}

	requestPath := fmt.Sprintf(sendAsPermissionsPathTemplate, url.PathEscape(trimmedIdentifier))
	executionError := client.executeRequest(executionContext, listSendAsOperationNameConstant, http.MethodGet, requestPath, trimmedIdentifier, nil, &response)
	if executionError != nil {
		return nil, executionError
	}

	return response.Value, nil
}

// AddSendAsPermission grants send-as rights on a distribution group to the trustee.
func (client *Client) AddSendAsPermission(executionContext context.Context, groupIdentifier string, trustee string) error {
	trimmedIdentifier := strings.TrimSpace(groupIdentifier)
	if len(trimmedIdentifier) == 0 {
		return InvalidInputError{FieldName: groupIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedTrustee := strings.TrimSpace(trustee)
	if len(trimmedTrustee) == 0 {
		return InvalidInputError{FieldName: trusteeFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payload := SendAsPermission{Trustee: trimmedTrustee}
	requestPath := fmt.Sprintf(sendAsPermissionsPathTemplate, url.PathEscape(trimmedIdentifier))
	return client.executeRequest(executionContext, addSendAsOperationNameConstant, http.MethodPost, requestPath, trimmedTrustee, payload, nil)
}

// SetSyncExclusion stamps the synchronization exclusion attribute on a group.
func (client *Client) SetSyncExclusion(executionContext context.Context, groupIdentifier string, attributeValue string) error {
	trimmedIdentifier := strings.TrimSpace(groupIdentifier)
	if len(trimmedIdentifier) == 0 {
		return InvalidInputError{FieldName: groupIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	exclusionValue := attributeValue
	update := GroupUpdate{SyncExclusionValue: &exclusionValue}
	requestPath := fmt.Sprintf(distributionGroupPathTemplate, url.PathEscape(trimmedIdentifier))
	return client.executeRequest(executionContext, setSyncExclusionOperationNameConstant, http.MethodPatch, requestPath, trimmedIdentifier, update, nil)
}

// GetContact retrieves a mail contact by identity.
func (client *Client) GetContact(executionContext context.Context, identity string) (MailContact, error) {
	trimmedIdentity := strings.TrimSpace(identity)
	if len(trimmedIdentity) == 0 {
		return MailContact{}, InvalidInputError{FieldName: identityFieldNameConstant, Message: requiredValueMessageConstant}
	}

	var contact MailContact
	requestPath := fmt.Sprintf(mailContactPathTemplateConstant, url.PathEscape(trimmedIdentity))
	executionError := client.executeRequest(executionContext, getContactOperationNameConstant, http.MethodGet, requestPath, trimmedIdentity, nil, &contact)
	if executionError != nil {
		return MailContact{}, executionError
	}

	return contact, nil
}

// CreateContact creates a mail contact from the provided settings.
func (client *Client) CreateContact(executionContext context.Context, settings ContactSettings) (MailContact, error) {
	if len(strings.TrimSpace(settings.Alias)) == 0 {
		return MailContact{}, InvalidInputError{FieldName: identityFieldNameConstant, Message: requiredValueMessageConstant}
	}

	var createdContact MailContact
	executionError := client.executeRequest(executionContext, createContactOperationNameConstant, http.MethodPost, mailContactsPathConstant, settings.Alias, settings, &createdContact)
	if executionError != nil {
		return MailContact{}, executionError
	}

	return createdContact, nil
}

// ResolveRecipient probes whether any recipient is visible under the identity.
func (client *Client) ResolveRecipient(executionContext context.Context, identity string) (RecipientResolution, error) {
	trimmedIdentity := strings.TrimSpace(identity)
	if len(trimmedIdentity) == 0 {
		return RecipientResolution{}, InvalidInputError{FieldName: identityFieldNameConstant, Message: requiredValueMessageConstant}
	}

	var response struct {
		Identifier    string `json:"id"`
		RecipientType string `json:"recipientType"`
	}

	requestPath := fmt.Sprintf(recipientsPathTemplateConstant, url.PathEscape(trimmedIdentity))
	executionError := client.executeRequest(executionContext, resolveRecipientOperationNameConstant, http.MethodGet, requestPath, trimmedIdentity, nil, &response)
	if executionError != nil {
		if IsNotFound(executionError) {
			return RecipientResolution{Found: false}, nil
		}
		return RecipientResolution{}, executionError
	}

	return RecipientResolution{Found: true, Identifier: response.Identifier, RecipientType: response.RecipientType}, nil
}

func (client *Client) executeRequest(executionContext context.Context, operation OperationName, method string, requestPath string, identity string, payload any, target any) error {
	return client.executeAbsoluteRequest(executionContext, operation, method, client.baseURL+requestPath, identity, payload, target)
}

func (client *Client) executeAbsoluteRequest(executionContext context.Context, operation OperationName, method string, requestURL string, identity string, payload any, target any) error {
	var requestBody io.Reader
	if payload != nil {
		encodedPayload, encodingError := json.Marshal(payload)
		if encodingError != nil {
			return PayloadEncodingError{Operation: operation, Cause: encodingError}
		}
		requestBody = bytes.NewReader(encodedPayload)
	}

	request, requestError := http.NewRequestWithContext(executionContext, method, requestURL, requestBody)
	if requestError != nil {
		return OperationError{Operation: operation, Cause: requestError}
	}

	accessToken, tokenError := client.tokenProvider.AccessToken(executionContext)
	if tokenError != nil {
		return OperationError{Operation: operation, Cause: tokenError}
	}

	request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(authorizationHeaderTemplateConstant, accessToken))
	request.Header.Set(requestIdentifierHeaderNameConstant, uuid.NewString())
	request.Header.Set(acceptHeaderNameConstant, jsonContentTypeConstant)
	if payload != nil {
		request.Header.Set(contentTypeHeaderNameConstant, jsonContentTypeConstant)
	}

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return OperationError{Operation: operation, Cause: responseError}
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusNotFound:
		return NotFoundError{Operation: operation, Identity: identity}
	case response.StatusCode == http.StatusConflict:
		return AlreadyExistsError{Operation: operation, Identity: identity}
	case response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices:
		return OperationError{Operation: operation, StatusCode: response.StatusCode, Cause: decodeGatewayError(response.Body)}
	}

	if target == nil {
		return nil
	}

	decodingError := json.NewDecoder(response.Body).Decode(target)
	if decodingError != nil {
		return ResponseDecodingError{Operation: operation, Cause: decodingError}
	}

	return nil
}

func decodeGatewayError(responseBody io.Reader) error {
	limitedBody, readError := io.ReadAll(io.LimitReader(responseBody, gatewayErrorReadLimitConstant))
	if readError != nil {
		return readError
	}

	var gatewayError struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if unmarshalError := json.Unmarshal(limitedBody, &gatewayError); unmarshalError == nil && len(gatewayError.Error.Message) > 0 {
		return fmt.Errorf("%s: %s", gatewayError.Error.Code, gatewayError.Error.Message)
	}

	return errors.New(strings.TrimSpace(string(limitedBody)))
}
