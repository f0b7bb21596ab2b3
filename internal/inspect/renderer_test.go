package inspect_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grouplift/grouplift/internal/backup"
	"github.com/grouplift/grouplift/internal/graphapi"
	"github.com/grouplift/grouplift/internal/inspect"
)

func inspectTestSnapshot() backup.Snapshot {
	snapshot := backup.NewSnapshot(
		graphapi.DistributionGroup{
			Identifier:         "group-0001",
			DisplayName:        "Finance Team",
			Alias:              "FinanceTeam",
			PrimarySMTPAddress: "FinanceTeam@contoso.com",
			EmailAddresses:     []string{"SMTP:FinanceTeam@contoso.com"},
		},
		[]graphapi.GroupMember{
			{DisplayName: "Alex Morgan", PrimarySMTPAddress: "alex.morgan@contoso.com", RecipientType: "UserMailbox"},
		},
		[]graphapi.SendAsPermission{{Trustee: "jamie.lee@contoso.com"}},
	)
	snapshot.CapturedAt = time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)
	return snapshot
}

func TestRenderIncludesGroupMembersAndTrustees(testInstance *testing.T) {
	testInstance.Parallel()

	var outputBuffer bytes.Buffer
	inspect.Render(&outputBuffer, inspectTestSnapshot())

	renderedOutput := outputBuffer.String()
	require.Contains(testInstance, renderedOutput, "Finance Team")
	require.Contains(testInstance, renderedOutput, "FinanceTeam@contoso.com")
	require.Contains(testInstance, renderedOutput, "alex.morgan@contoso.com")
	require.Contains(testInstance, renderedOutput, "jamie.lee@contoso.com")
	require.Contains(testInstance, renderedOutput, "Members (1)")
	require.Contains(testInstance, renderedOutput, "Send-as permissions (1)")
	require.Contains(testInstance, renderedOutput, "2026-03-14T09:26:53Z")
}

func TestInspectCommandRendersSnapshotFile(testInstance *testing.T) {
	testInstance.Parallel()

	backupDirectory := testInstance.TempDir()
	snapshotStore, storeError := backup.NewStore(backupDirectory)
	require.NoError(testInstance, storeError)

	snapshotPath, writeError := snapshotStore.WriteSnapshot(inspectTestSnapshot())
	require.NoError(testInstance, writeError)

	builder := inspect.CommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	var outputBuffer bytes.Buffer
	command.SetOut(&outputBuffer)
	command.SetArgs([]string{snapshotPath})
	command.SetContext(context.Background())

	require.NoError(testInstance, command.Execute())
	require.Contains(testInstance, outputBuffer.String(), "FinanceTeam@contoso.com")
}

func TestInspectCommandReportsMissingFile(testInstance *testing.T) {
	testInstance.Parallel()

	builder := inspect.CommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetArgs([]string{filepath.Join(testInstance.TempDir(), "absent.xml")})
	command.SetContext(context.Background())

	require.Error(testInstance, command.Execute())
}
