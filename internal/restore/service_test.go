package restore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grouplift/grouplift/internal/backup"
	"github.com/grouplift/grouplift/internal/graphapi"
	"github.com/grouplift/grouplift/internal/polling"
	"github.com/grouplift/grouplift/internal/restore"
)

const (
	restoreTestGroupAddressConstant  = "FinanceTeam@contoso.com"
	restoreTestSnapshotPathConstant  = "backups/FinanceTeam-20260314T092653Z.xml"
	restoreTestExplicitPathConstant  = "backups/FinanceTeam-20260101T000000Z.xml"
	restoreTestMemberAddressConstant = "alex.morgan@contoso.com"
	restoreTestTrusteeConstant       = "jamie.lee@contoso.com"
)

type scriptedRestoreGateway struct {
	resolutionQueue []bool
	resolutionError error
	createdGroup    graphapi.DistributionGroup
	creationError   error

	createdSettings graphapi.GroupSettings
	addedMembers    []string
	grantedTrustees []string
}

func (gateway *scriptedRestoreGateway) ResolveRecipient(_ context.Context, _ string) (graphapi.RecipientResolution, error) {
	if gateway.resolutionError != nil {
		return graphapi.RecipientResolution{}, gateway.resolutionError
	}
	if len(gateway.resolutionQueue) == 0 {
		return graphapi.RecipientResolution{}, nil
	}
	found := gateway.resolutionQueue[0]
	gateway.resolutionQueue = gateway.resolutionQueue[1:]
	return graphapi.RecipientResolution{Found: found, RecipientType: "MailUniversalDistributionGroup"}, nil
}

func (gateway *scriptedRestoreGateway) CreateGroup(_ context.Context, settings graphapi.GroupSettings) (graphapi.DistributionGroup, error) {
	gateway.createdSettings = settings
	return gateway.createdGroup, gateway.creationError
}

func (gateway *scriptedRestoreGateway) AddGroupMember(_ context.Context, _ string, memberAddress string) error {
	gateway.addedMembers = append(gateway.addedMembers, memberAddress)
	return nil
}

func (gateway *scriptedRestoreGateway) AddSendAsPermission(_ context.Context, _ string, trustee string) error {
	gateway.grantedTrustees = append(gateway.grantedTrustees, trustee)
	return nil
}

type stubSnapshotReader struct {
	snapshot     backup.Snapshot
	readError    error
	latestPath   string
	latestError  error
	readPath     string
	lookupCalled bool
}

func (reader *stubSnapshotReader) ReadSnapshot(snapshotPath string) (backup.Snapshot, error) {
	reader.readPath = snapshotPath
	return reader.snapshot, reader.readError
}

func (reader *stubSnapshotReader) LatestSnapshotPath(_ string) (string, error) {
	reader.lookupCalled = true
	return reader.latestPath, reader.latestError
}

func restoreTestSnapshot() backup.Snapshot {
	return backup.NewSnapshot(
		graphapi.DistributionGroup{
			Identifier:         "group-0001",
			DisplayName:        "Finance Team",
			Alias:              "FinanceTeam",
			PrimarySMTPAddress: restoreTestGroupAddressConstant,
		},
		[]graphapi.GroupMember{{PrimarySMTPAddress: restoreTestMemberAddressConstant}},
		[]graphapi.SendAsPermission{{Trustee: restoreTestTrusteeConstant}},
	)
}

func newRestoreTestService(testInstance *testing.T, gateway restore.DirectoryGateway, reader restore.SnapshotReader, attemptLimit int) *restore.Service {
	testInstance.Helper()

	service, serviceError := restore.NewService(restore.ServiceDependencies{
		Logger:  zap.NewNop(),
		Gateway: gateway,
		Store:   reader,
		Waiter:  polling.NewWaiter(zap.NewNop(), time.Millisecond, attemptLimit),
	})
	require.NoError(testInstance, serviceError)
	return service
}

func TestServiceRestore(testInstance *testing.T) {
	testInstance.Parallel()

	testInstance.Run("0_restores_from_newest_snapshot", func(subTest *testing.T) {
		subTest.Parallel()

		gateway := &scriptedRestoreGateway{
			resolutionQueue: []bool{false, false, true},
			createdGroup:    graphapi.DistributionGroup{Identifier: "group-0002"},
		}
		reader := &stubSnapshotReader{snapshot: restoreTestSnapshot(), latestPath: restoreTestSnapshotPathConstant}
		service := newRestoreTestService(subTest, gateway, reader, 10)

		result, restoreError := service.Restore(context.Background(), restore.RestoreOptions{GroupIdentity: restoreTestGroupAddressConstant})
		require.NoError(subTest, restoreError)

		require.True(subTest, reader.lookupCalled)
		require.Equal(subTest, restoreTestSnapshotPathConstant, reader.readPath)
		require.Equal(subTest, restore.RestoreResult{
			SnapshotPath: restoreTestSnapshotPathConstant,
			GroupID:      "group-0002",
			GroupAddress: restoreTestGroupAddressConstant,
			MemberCount:  1,
			SendAsCount:  1,
		}, result)
		require.Equal(subTest, "FinanceTeam", gateway.createdSettings.Alias)
		require.Equal(subTest, []string{restoreTestMemberAddressConstant}, gateway.addedMembers)
		require.Equal(subTest, []string{restoreTestTrusteeConstant}, gateway.grantedTrustees)
	})

	testInstance.Run("1_explicit_file_skips_newest_lookup", func(subTest *testing.T) {
		subTest.Parallel()

		gateway := &scriptedRestoreGateway{
			resolutionQueue: []bool{false, true},
			createdGroup:    graphapi.DistributionGroup{Identifier: "group-0002"},
		}
		reader := &stubSnapshotReader{snapshot: restoreTestSnapshot()}
		service := newRestoreTestService(subTest, gateway, reader, 5)

		result, restoreError := service.Restore(context.Background(), restore.RestoreOptions{SnapshotPath: restoreTestExplicitPathConstant})
		require.NoError(subTest, restoreError)
		require.False(subTest, reader.lookupCalled)
		require.Equal(subTest, restoreTestExplicitPathConstant, reader.readPath)
		require.Equal(subTest, restoreTestExplicitPathConstant, result.SnapshotPath)
	})

	testInstance.Run("2_refuses_to_overwrite_existing_recipient", func(subTest *testing.T) {
		subTest.Parallel()

		gateway := &scriptedRestoreGateway{resolutionQueue: []bool{true}}
		reader := &stubSnapshotReader{snapshot: restoreTestSnapshot(), latestPath: restoreTestSnapshotPathConstant}
		service := newRestoreTestService(subTest, gateway, reader, 5)

		_, restoreError := service.Restore(context.Background(), restore.RestoreOptions{GroupIdentity: restoreTestGroupAddressConstant})

		var targetExistsError restore.TargetExistsError
		require.ErrorAs(subTest, restoreError, &targetExistsError)
		require.Equal(subTest, restoreTestGroupAddressConstant, targetExistsError.Identity)
		require.Empty(subTest, gateway.createdSettings.Alias)
	})

	testInstance.Run("3_reports_missing_snapshot", func(subTest *testing.T) {
		subTest.Parallel()

		missingError := backup.NoSnapshotError{Identity: restoreTestGroupAddressConstant, Directory: "backups"}
		reader := &stubSnapshotReader{latestError: missingError}
		service := newRestoreTestService(subTest, &scriptedRestoreGateway{}, reader, 5)

		_, restoreError := service.Restore(context.Background(), restore.RestoreOptions{GroupIdentity: restoreTestGroupAddressConstant})

		var noSnapshotError backup.NoSnapshotError
		require.ErrorAs(subTest, restoreError, &noSnapshotError)
	})

	testInstance.Run("4_times_out_when_group_never_appears", func(subTest *testing.T) {
		subTest.Parallel()

		gateway := &scriptedRestoreGateway{
			resolutionQueue: []bool{false, false, false, false},
			createdGroup:    graphapi.DistributionGroup{Identifier: "group-0002"},
		}
		reader := &stubSnapshotReader{snapshot: restoreTestSnapshot(), latestPath: restoreTestSnapshotPathConstant}
		service := newRestoreTestService(subTest, gateway, reader, 3)

		_, restoreError := service.Restore(context.Background(), restore.RestoreOptions{GroupIdentity: restoreTestGroupAddressConstant})

		var timeoutError polling.TimeoutError
		require.ErrorAs(subTest, restoreError, &timeoutError)
		require.Empty(subTest, gateway.addedMembers)
	})

	testInstance.Run("5_rejects_missing_identity_and_file", func(subTest *testing.T) {
		subTest.Parallel()

		service := newRestoreTestService(subTest, &scriptedRestoreGateway{}, &stubSnapshotReader{}, 2)

		_, restoreError := service.Restore(context.Background(), restore.RestoreOptions{})

		var invalidInputError restore.InvalidInputError
		require.ErrorAs(subTest, restoreError, &invalidInputError)
	})

	testInstance.Run("6_propagates_resolution_failure", func(subTest *testing.T) {
		subTest.Parallel()

		gatewayFailure := errors.New("gateway unavailable")
		gateway := &scriptedRestoreGateway{resolutionError: gatewayFailure}
		reader := &stubSnapshotReader{snapshot: restoreTestSnapshot(), latestPath: restoreTestSnapshotPathConstant}
		service := newRestoreTestService(subTest, gateway, reader, 2)

		_, restoreError := service.Restore(context.Background(), restore.RestoreOptions{GroupIdentity: restoreTestGroupAddressConstant})
		require.ErrorIs(subTest, restoreError, gatewayFailure)
	})
}
