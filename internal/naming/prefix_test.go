package naming_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grouplift/grouplift/internal/naming"
)

const (
	testPrefixConstant              = "Cloud-"
	testSubtestNameTemplateConstant = "%d_%s"
)

func TestApplyPrefix(testInstance *testing.T) {
	testCases := []struct {
		name             string
		identity         naming.GroupIdentity
		prefix           string
		expectedIdentity naming.GroupIdentity
		expectError      bool
	}{
		{
			name: "prefixes_every_identity_component",
			identity: naming.GroupIdentity{
				DisplayName:        "Finance Team",
				Alias:              "finance-team",
				PrimarySMTPAddress: "finance-team@contoso.com",
			},
			prefix: testPrefixConstant,
			expectedIdentity: naming.GroupIdentity{
				DisplayName:        "Cloud-Finance Team",
				Alias:              "Cloud-finance-team",
				PrimarySMTPAddress: "Cloud-finance-team@contoso.com",
			},
		},
		{
			name: "rejects_address_without_domain",
			identity: naming.GroupIdentity{
				DisplayName:        "Finance Team",
				Alias:              "finance-team",
				PrimarySMTPAddress: "finance-team",
			},
			prefix:      testPrefixConstant,
			expectError: true,
		},
		{
			name: "rejects_empty_prefix",
			identity: naming.GroupIdentity{
				DisplayName:        "Finance Team",
				Alias:              "finance-team",
				PrimarySMTPAddress: "finance-team@contoso.com",
			},
			prefix:      "",
			expectError: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			prefixedIdentity, prefixError := naming.ApplyPrefix(testCase.identity, testCase.prefix)

			if testCase.expectError {
				require.Error(testInstance, prefixError)
				return
			}

			require.NoError(testInstance, prefixError)
			require.Equal(testInstance, testCase.expectedIdentity, prefixedIdentity)
		})
	}
}

func TestStripPrefixRestoresOriginalIdentity(testInstance *testing.T) {
	prefixedIdentity := naming.GroupIdentity{
		DisplayName:        "Cloud-Finance Team",
		Alias:              "Cloud-finance-team",
		PrimarySMTPAddress: "Cloud-finance-team@contoso.com",
	}

	restoredIdentity := naming.StripPrefix(prefixedIdentity, testPrefixConstant)

	require.Equal(testInstance, "Finance Team", restoredIdentity.DisplayName)
	require.Equal(testInstance, "finance-team", restoredIdentity.Alias)
	require.Equal(testInstance, "finance-team@contoso.com", restoredIdentity.PrimarySMTPAddress)
}

func TestStripPrefixOnlyRemovesLeadingOccurrence(testInstance *testing.T) {
	prefixedIdentity := naming.GroupIdentity{
		DisplayName:        "Cloud-Cloud-Native Guild",
		Alias:              "Cloud-cloud-native",
		PrimarySMTPAddress: "Cloud-cloud-native@contoso.com",
	}

	restoredIdentity := naming.StripPrefix(prefixedIdentity, testPrefixConstant)

	require.Equal(testInstance, "Cloud-Native Guild", restoredIdentity.DisplayName)
	require.Equal(testInstance, "cloud-native", restoredIdentity.Alias)
	require.Equal(testInstance, "cloud-native@contoso.com", restoredIdentity.PrimarySMTPAddress)
}

func TestProxyAddressValue(testInstance *testing.T) {
	require.Equal(testInstance, "finance-team@contoso.com", naming.ProxyAddressValue("SMTP:finance-team@contoso.com"))
	require.Equal(testInstance, "finance@contoso.onmicrosoft.com", naming.ProxyAddressValue("smtp:finance@contoso.onmicrosoft.com"))
	require.Equal(testInstance, "finance-team@contoso.com", naming.ProxyAddressValue("finance-team@contoso.com"))
}

func TestWithoutProxyAddress(testInstance *testing.T) {
	proxyAddresses := []string{
		naming.PrimaryProxyAddress("finance-team@contoso.com"),
		naming.SecondaryProxyAddress("Cloud-finance-team@contoso.com"),
		naming.SecondaryProxyAddress("finance@contoso.onmicrosoft.com"),
	}

	filteredAddresses := naming.WithoutProxyAddress(proxyAddresses, "cloud-finance-team@contoso.com")

	require.Equal(testInstance, []string{
		naming.PrimaryProxyAddress("finance-team@contoso.com"),
		naming.SecondaryProxyAddress("finance@contoso.onmicrosoft.com"),
	}, filteredAddresses)
}
