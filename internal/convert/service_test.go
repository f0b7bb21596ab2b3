package convert_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grouplift/grouplift/internal/backup"
	"github.com/grouplift/grouplift/internal/convert"
	"github.com/grouplift/grouplift/internal/graphapi"
	"github.com/grouplift/grouplift/internal/polling"
)

const (
	convertTestSourceAddressConstant    = "FinanceTeam@contoso.com"
	convertTestTemporaryAddressConstant = "Cloud-FinanceTeam@contoso.com"
	convertTestPrefixConstant           = "Cloud-"
	convertTestExclusionValueConstant   = "cloud-only"
	convertTestArchiveAddressConstant   = "finance-archive@contoso.com"
	convertTestSnapshotPathConstant     = "backups/FinanceTeam-20260314T092653Z.xml"
)

type scriptedConvertGateway struct {
	group             graphapi.DistributionGroup
	groupError        error
	members           []graphapi.GroupMember
	sendAsPermissions []graphapi.SendAsPermission
	createdGroup      graphapi.DistributionGroup
	creationError     error
	exclusionError    error
	updateError       error
	resolutionQueues  map[string][]bool

	exclusionValue   string
	createdSettings  graphapi.GroupSettings
	addedMembers     []string
	grantedTrustees  []string
	appliedUpdate    graphapi.GroupUpdate
	updatedGroupID   string
	resolutionCounts map[string]int
}

func (gateway *scriptedConvertGateway) GetGroup(_ context.Context, _ string) (graphapi.DistributionGroup, error) {
	return gateway.group, gateway.groupError
}

func (gateway *scriptedConvertGateway) ResolveRecipient(_ context.Context, identity string) (graphapi.RecipientResolution, error) {
	if gateway.resolutionCounts == nil {
		gateway.resolutionCounts = map[string]int{}
	}
	gateway.resolutionCounts[identity]++

	queue := gateway.resolutionQueues[identity]
	if len(queue) == 0 {
		return graphapi.RecipientResolution{}, nil
	}
	found := queue[0]
	gateway.resolutionQueues[identity] = queue[1:]
	return graphapi.RecipientResolution{Found: found, RecipientType: "MailUniversalDistributionGroup"}, nil
}

func (gateway *scriptedConvertGateway) CreateGroup(_ context.Context, settings graphapi.GroupSettings) (graphapi.DistributionGroup, error) {
	gateway.createdSettings = settings
	return gateway.createdGroup, gateway.creationError
}

func (gateway *scriptedConvertGateway) UpdateGroup(_ context.Context, groupIdentifier string, update graphapi.GroupUpdate) error {
	gateway.updatedGroupID = groupIdentifier
	gateway.appliedUpdate = update
	return gateway.updateError
}

func (gateway *scriptedConvertGateway) SetSyncExclusion(_ context.Context, _ string, attributeValue string) error {
	gateway.exclusionValue = attributeValue
	return gateway.exclusionError
}

func (gateway *scriptedConvertGateway) ListGroupMembers(_ context.Context, _ string) ([]graphapi.GroupMember, error) {
	return gateway.members, nil
}

func (gateway *scriptedConvertGateway) AddGroupMember(_ context.Context, _ string, memberAddress string) error {
	gateway.addedMembers = append(gateway.addedMembers, memberAddress)
	return nil
}

func (gateway *scriptedConvertGateway) ListSendAsPermissions(_ context.Context, _ string) ([]graphapi.SendAsPermission, error) {
	return gateway.sendAsPermissions, nil
}

func (gateway *scriptedConvertGateway) AddSendAsPermission(_ context.Context, _ string, trustee string) error {
	gateway.grantedTrustees = append(gateway.grantedTrustees, trustee)
	return nil
}

type recordingSnapshotWriter struct {
	writtenSnapshot backup.Snapshot
	writeError      error
}

func (writer *recordingSnapshotWriter) WriteSnapshot(snapshot backup.Snapshot) (string, error) {
	writer.writtenSnapshot = snapshot
	if writer.writeError != nil {
		return "", writer.writeError
	}
	return convertTestSnapshotPathConstant, nil
}

func convertTestSourceGroup() graphapi.DistributionGroup {
	return graphapi.DistributionGroup{
		Identifier:         "group-0001",
		DisplayName:        "Finance Team",
		Alias:              "FinanceTeam",
		PrimarySMTPAddress: convertTestSourceAddressConstant,
		EmailAddresses: []string{
			"SMTP:" + convertTestSourceAddressConstant,
			"smtp:" + convertTestArchiveAddressConstant,
		},
		RequireSenderAuthentication: true,
		DirectorySynced:             true,
	}
}

func newConvertTestService(testInstance *testing.T, gateway convert.DirectoryGateway, writer convert.SnapshotWriter, attemptLimit int) *convert.Service {
	testInstance.Helper()

	service, serviceError := convert.NewService(convert.ServiceDependencies{
		Logger:  zap.NewNop(),
		Gateway: gateway,
		Store:   writer,
		Waiter:  polling.NewWaiter(zap.NewNop(), time.Millisecond, attemptLimit),
	})
	require.NoError(testInstance, serviceError)
	return service
}

func TestServiceConvert(testInstance *testing.T) {
	testInstance.Parallel()

	testInstance.Run("0_full_conversion_restores_original_identity", func(subTest *testing.T) {
		subTest.Parallel()

		gateway := &scriptedConvertGateway{
			group: convertTestSourceGroup(),
			members: []graphapi.GroupMember{
				{PrimarySMTPAddress: "alex.morgan@contoso.com"},
				{PrimarySMTPAddress: "casey.reid@contoso.com"},
			},
			sendAsPermissions: []graphapi.SendAsPermission{{Trustee: "jamie.lee@contoso.com"}},
			createdGroup: graphapi.DistributionGroup{
				Identifier:         "group-0002",
				PrimarySMTPAddress: convertTestTemporaryAddressConstant,
				EmailAddresses:     []string{"SMTP:" + convertTestTemporaryAddressConstant},
			},
			resolutionQueues: map[string][]bool{
				convertTestSourceAddressConstant:    {true, true, false},
				convertTestTemporaryAddressConstant: {false, true},
			},
		}
		writer := &recordingSnapshotWriter{}
		service := newConvertTestService(subTest, gateway, writer, 10)

		result, convertError := service.Convert(context.Background(), convert.ConvertOptions{
			SourceIdentity: convertTestSourceAddressConstant,
			Prefix:         convertTestPrefixConstant,
			ExclusionValue: convertTestExclusionValueConstant,
		})
		require.NoError(subTest, convertError)

		require.Equal(subTest, convert.ConvertResult{
			SnapshotPath: convertTestSnapshotPathConstant,
			GroupID:      "group-0002",
			GroupAddress: convertTestSourceAddressConstant,
			MemberCount:  2,
			SendAsCount:  1,
		}, result)

		require.Equal(subTest, convertTestExclusionValueConstant, gateway.exclusionValue)
		require.Equal(subTest, "Cloud-FinanceTeam", gateway.createdSettings.Alias)
		require.Equal(subTest, convertTestTemporaryAddressConstant, gateway.createdSettings.PrimarySMTPAddress)
		require.True(subTest, gateway.createdSettings.RequireSenderAuthentication)
		require.Equal(subTest, []string{"alex.morgan@contoso.com", "casey.reid@contoso.com"}, gateway.addedMembers)
		require.Equal(subTest, []string{"jamie.lee@contoso.com"}, gateway.grantedTrustees)

		require.Equal(subTest, "group-0002", gateway.updatedGroupID)
		require.NotNil(subTest, gateway.appliedUpdate.DisplayName)
		require.Equal(subTest, "Finance Team", *gateway.appliedUpdate.DisplayName)
		require.NotNil(subTest, gateway.appliedUpdate.Alias)
		require.Equal(subTest, "FinanceTeam", *gateway.appliedUpdate.Alias)
		require.NotNil(subTest, gateway.appliedUpdate.PrimarySMTPAddress)
		require.Equal(subTest, convertTestSourceAddressConstant, *gateway.appliedUpdate.PrimarySMTPAddress)
		require.NotNil(subTest, gateway.appliedUpdate.EmailAddresses)
		require.Equal(subTest, []string{
			"SMTP:" + convertTestSourceAddressConstant,
			"smtp:" + convertTestArchiveAddressConstant,
		}, *gateway.appliedUpdate.EmailAddresses)
		require.NotContains(subTest, *gateway.appliedUpdate.EmailAddresses, "SMTP:"+convertTestTemporaryAddressConstant)
	})

	testInstance.Run("1_rejects_cloud_only_source", func(subTest *testing.T) {
		subTest.Parallel()

		gateway := &scriptedConvertGateway{
			group: graphapi.DistributionGroup{Identifier: "group-0001", PrimarySMTPAddress: convertTestSourceAddressConstant},
		}
		service := newConvertTestService(subTest, gateway, &recordingSnapshotWriter{}, 2)

		_, convertError := service.Convert(context.Background(), convert.ConvertOptions{
			SourceIdentity: convertTestSourceAddressConstant,
			Prefix:         convertTestPrefixConstant,
			ExclusionValue: convertTestExclusionValueConstant,
		})

		var notSyncedError convert.NotSyncedError
		require.ErrorAs(subTest, convertError, &notSyncedError)
	})

	testInstance.Run("2_aborts_with_snapshot_when_source_never_disappears", func(subTest *testing.T) {
		subTest.Parallel()

		gateway := &scriptedConvertGateway{
			group: convertTestSourceGroup(),
			resolutionQueues: map[string][]bool{
				convertTestSourceAddressConstant: {true, true, true},
			},
		}
		writer := &recordingSnapshotWriter{}
		service := newConvertTestService(subTest, gateway, writer, 3)

		result, convertError := service.Convert(context.Background(), convert.ConvertOptions{
			SourceIdentity: convertTestSourceAddressConstant,
			Prefix:         convertTestPrefixConstant,
			ExclusionValue: convertTestExclusionValueConstant,
		})

		var timeoutError polling.TimeoutError
		require.ErrorAs(subTest, convertError, &timeoutError)
		require.Equal(subTest, 3, timeoutError.AttemptCount)
		require.Equal(subTest, convertTestSnapshotPathConstant, result.SnapshotPath)
		require.Empty(subTest, result.GroupID)
	})

	testInstance.Run("3_aborts_before_exclusion_when_snapshot_write_fails", func(subTest *testing.T) {
		subTest.Parallel()

		diskFailure := errors.New("disk full")
		gateway := &scriptedConvertGateway{group: convertTestSourceGroup()}
		service := newConvertTestService(subTest, gateway, &recordingSnapshotWriter{writeError: diskFailure}, 2)

		_, convertError := service.Convert(context.Background(), convert.ConvertOptions{
			SourceIdentity: convertTestSourceAddressConstant,
			Prefix:         convertTestPrefixConstant,
			ExclusionValue: convertTestExclusionValueConstant,
		})

		require.ErrorIs(subTest, convertError, diskFailure)
		require.Empty(subTest, gateway.exclusionValue)
	})

	testInstance.Run("4_rejects_blank_source_identity", func(subTest *testing.T) {
		subTest.Parallel()

		service := newConvertTestService(subTest, &scriptedConvertGateway{}, &recordingSnapshotWriter{}, 2)

		_, convertError := service.Convert(context.Background(), convert.ConvertOptions{SourceIdentity: " "})

		var invalidInputError convert.InvalidInputError
		require.ErrorAs(subTest, convertError, &invalidInputError)
	})
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	testInstance.Parallel()

	waiter := polling.NewWaiter(zap.NewNop(), time.Millisecond, 1)

	testCases := []struct {
		name         string
		dependencies convert.ServiceDependencies
	}{
		{
			name:         "missing_gateway",
			dependencies: convert.ServiceDependencies{Store: &recordingSnapshotWriter{}, Waiter: waiter},
		},
		{
			name:         "missing_store",
			dependencies: convert.ServiceDependencies{Gateway: &scriptedConvertGateway{}, Waiter: waiter},
		},
		{
			name:         "missing_waiter",
			dependencies: convert.ServiceDependencies{Gateway: &scriptedConvertGateway{}, Store: &recordingSnapshotWriter{}},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testCase := testCase
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subTest *testing.T) {
			subTest.Parallel()

			_, serviceError := convert.NewService(testCase.dependencies)
			require.Error(subTest, serviceError)
		})
	}
}
