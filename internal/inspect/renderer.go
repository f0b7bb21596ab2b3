package inspect

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/grouplift/grouplift/internal/backup"
)

const (
	snapshotHeadingTemplateConstant = "Snapshot %s captured %s by %s\n"
	membersHeadingTemplateConstant  = "\nMembers (%d)\n"
	sendAsHeadingTemplateConstant   = "\nSend-as permissions (%d)\n"
	capturedAtDisplayLayoutConstant = time.RFC3339
	booleanYesValueConstant         = "yes"
	booleanNoValueConstant          = "no"
)

// Render writes the snapshot as three tables: group information, members,
// and send-as trustees.
func Render(outputWriter io.Writer, snapshot backup.Snapshot) {
	fmt.Fprintf(
		outputWriter,
		snapshotHeadingTemplateConstant,
		snapshot.SnapshotIdentifier,
		snapshot.CapturedAt.Format(capturedAtDisplayLayoutConstant),
		snapshot.ProducedBy,
	)

	groupTable := tablewriter.NewWriter(outputWriter)
	groupTable.Header("Property", "Value")
	groupTable.Append("ID", snapshot.GroupInfo.Identifier)
	groupTable.Append("Display name", snapshot.GroupInfo.DisplayName)
	groupTable.Append("Alias", snapshot.GroupInfo.Alias)
	groupTable.Append("Primary SMTP address", snapshot.GroupInfo.PrimarySMTPAddress)
	groupTable.Append("Proxy addresses", strconv.Itoa(len(snapshot.GroupInfo.EmailAddresses)))
	groupTable.Append("Hidden from address lists", formatBoolean(snapshot.GroupInfo.HiddenFromAddressLists))
	groupTable.Append("Require sender authentication", formatBoolean(snapshot.GroupInfo.RequireSenderAuthentication))
	if len(snapshot.GroupInfo.Notes) > 0 {
		groupTable.Append("Notes", snapshot.GroupInfo.Notes)
	}
	groupTable.Render()

	fmt.Fprintf(outputWriter, membersHeadingTemplateConstant, len(snapshot.Members))
	memberTable := tablewriter.NewWriter(outputWriter)
	memberTable.Header("Display name", "Primary SMTP address", "Recipient type")
	for _, snapshotMember := range snapshot.Members {
		memberTable.Append(snapshotMember.DisplayName, snapshotMember.PrimarySMTPAddress, snapshotMember.RecipientType)
	}
	memberTable.Render()

	fmt.Fprintf(outputWriter, sendAsHeadingTemplateConstant, len(snapshot.SendAsTrustees))
	sendAsTable := tablewriter.NewWriter(outputWriter)
	sendAsTable.Header("Trustee")
	for _, trustee := range snapshot.SendAsTrustees {
		sendAsTable.Append(trustee)
	}
	sendAsTable.Render()
}

func formatBoolean(value bool) string {
	if value {
		return booleanYesValueConstant
	}
	return booleanNoValueConstant
}
