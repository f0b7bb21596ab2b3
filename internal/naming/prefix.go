package naming

import (
	"errors"
	"fmt"
	"strings"
)

const (
	addressSeparatorConstant       = "@"
	addressFormatTemplateConstant  = "%s@%s"
	primaryProxyPrefixConstant     = "SMTP:"
	secondaryProxyPrefixConstant   = "smtp:"
	invalidAddressTemplateConstant = "address %q is not a valid SMTP address"
	emptyPrefixMessageConstant     = "prefix must not be empty"
)

var errEmptyPrefix = errors.New(emptyPrefixMessageConstant)

// GroupIdentity captures the externally visible identity of a distribution group.
type GroupIdentity struct {
	DisplayName        string
	Alias              string
	PrimarySMTPAddress string
}

// InvalidAddressError indicates an SMTP address without a local part or domain.
type InvalidAddressError struct {
	Address string
}

// Error describes the malformed address.
func (addressError InvalidAddressError) Error() string {
	return fmt.Sprintf(invalidAddressTemplateConstant, addressError.Address)
}

// ApplyPrefix derives the prefixed identity used while a migrated group is in flight.
func ApplyPrefix(identity GroupIdentity, prefix string) (GroupIdentity, error) {
	if len(prefix) == 0 {
		return GroupIdentity{}, errEmptyPrefix
	}

	localPart, domainPart, splitError := splitAddress(identity.PrimarySMTPAddress)
	if splitError != nil {
		return GroupIdentity{}, splitError
	}

	return GroupIdentity{
		DisplayName:        prefix + identity.DisplayName,
		Alias:              prefix + identity.Alias,
		PrimarySMTPAddress: fmt.Sprintf(addressFormatTemplateConstant, prefix+localPart, domainPart),
	}, nil
}

// StripPrefix restores the original identity by removing one leading occurrence
// of the prefix from the display name, alias, and address local part.
func StripPrefix(identity GroupIdentity, prefix string) GroupIdentity {
	if len(prefix) == 0 {
		return identity
	}

	restoredIdentity := GroupIdentity{
		DisplayName:        strings.TrimPrefix(identity.DisplayName, prefix),
		Alias:              strings.TrimPrefix(identity.Alias, prefix),
		PrimarySMTPAddress: identity.PrimarySMTPAddress,
	}

	localPart, domainPart, splitError := splitAddress(identity.PrimarySMTPAddress)
	if splitError == nil {
		restoredIdentity.PrimarySMTPAddress = fmt.Sprintf(addressFormatTemplateConstant, strings.TrimPrefix(localPart, prefix), domainPart)
	}

	return restoredIdentity
}

// RoutedAddress rewrites the address onto the routing domain, keeping the
// local part.
func RoutedAddress(address string, routingDomain string) (string, error) {
	localPart, _, splitError := splitAddress(address)
	if splitError != nil {
		return "", splitError
	}
	return fmt.Sprintf(addressFormatTemplateConstant, localPart, routingDomain), nil
}

// PrimaryProxyAddress renders an address as a primary proxy entry.
func PrimaryProxyAddress(address string) string {
	return primaryProxyPrefixConstant + address
}

// SecondaryProxyAddress renders an address as a secondary proxy entry.
func SecondaryProxyAddress(address string) string {
	return secondaryProxyPrefixConstant + address
}

// ProxyAddressValue returns the address portion of a proxy entry, with the
// primary or secondary marker removed. Entries without a marker pass through.
func ProxyAddressValue(proxyAddress string) string {
	return strings.TrimPrefix(strings.TrimPrefix(proxyAddress, primaryProxyPrefixConstant), secondaryProxyPrefixConstant)
}

// WithoutProxyAddress returns the proxy list with every entry for the address removed,
// comparing case-insensitively on the address portion.
func WithoutProxyAddress(proxyAddresses []string, address string) []string {
	filteredAddresses := make([]string, 0, len(proxyAddresses))
	for _, proxyAddress := range proxyAddresses {
		if strings.EqualFold(ProxyAddressValue(proxyAddress), address) {
			continue
		}
		filteredAddresses = append(filteredAddresses, proxyAddress)
	}
	return filteredAddresses
}

func splitAddress(address string) (string, string, error) {
	localPart, domainPart, separatorFound := strings.Cut(address, addressSeparatorConstant)
	if !separatorFound || len(localPart) == 0 || len(domainPart) == 0 {
		return "", "", InvalidAddressError{Address: address}
	}
	return localPart, domainPart, nil
}
