package backup

import (
	"encoding/xml"
	"time"

	"github.com/google/uuid"

	"github.com/grouplift/grouplift/internal/graphapi"
)

const producedByValueConstant = "grouplift"

// GroupInfo mirrors the distribution group attributes preserved in a snapshot.
type GroupInfo struct {
	Identifier                  string   `xml:"id"`
	DisplayName                 string   `xml:"displayName"`
	Alias                       string   `xml:"alias"`
	PrimarySMTPAddress          string   `xml:"primarySmtpAddress"`
	EmailAddresses              []string `xml:"emailAddresses>address"`
	Notes                       string   `xml:"notes,omitempty"`
	HiddenFromAddressLists      bool     `xml:"hiddenFromAddressLists"`
	RequireSenderAuthentication bool     `xml:"requireSenderAuthentication"`
	ManagedBy                   []string `xml:"managedBy>owner,omitempty"`
}

// Member records one group member preserved in a snapshot.
type Member struct {
	Identifier         string `xml:"id"`
	DisplayName        string `xml:"displayName"`
	PrimarySMTPAddress string `xml:"primarySmtpAddress"`
	RecipientType      string `xml:"recipientType"`
}

// Snapshot is the XML backup document: group information, members, and send-as trustees.
type Snapshot struct {
	XMLName            xml.Name  `xml:"distributionGroupBackup"`
	SnapshotIdentifier string    `xml:"snapshotId,attr"`
	ProducedBy         string    `xml:"producedBy,attr"`
	CapturedAt         time.Time `xml:"capturedAt,attr"`
	GroupInfo          GroupInfo `xml:"groupInfo"`
	Members            []Member  `xml:"members>member"`
	SendAsTrustees     []string  `xml:"sendAsPermissions>trustee"`
}

// NewSnapshot assembles a snapshot from gateway objects.
func NewSnapshot(group graphapi.DistributionGroup, members []graphapi.GroupMember, sendAsPermissions []graphapi.SendAsPermission) Snapshot {
	snapshotMembers := make([]Member, 0, len(members))
	for _, groupMember := range members {
		snapshotMembers = append(snapshotMembers, Member{
			Identifier:         groupMember.Identifier,
			DisplayName:        groupMember.DisplayName,
			PrimarySMTPAddress: groupMember.PrimarySMTPAddress,
			RecipientType:      groupMember.RecipientType,
		})
	}

	sendAsTrustees := make([]string, 0, len(sendAsPermissions))
	for _, permission := range sendAsPermissions {
		sendAsTrustees = append(sendAsTrustees, permission.Trustee)
	}

	return Snapshot{
		SnapshotIdentifier: uuid.NewString(),
		ProducedBy:         producedByValueConstant,
		CapturedAt:         time.Now().UTC(),
		GroupInfo: GroupInfo{
			Identifier:                  group.Identifier,
			DisplayName:                 group.DisplayName,
			Alias:                       group.Alias,
			PrimarySMTPAddress:          group.PrimarySMTPAddress,
			EmailAddresses:              group.EmailAddresses,
			Notes:                       group.Notes,
			HiddenFromAddressLists:      group.HiddenFromAddressLists,
			RequireSenderAuthentication: group.RequireSenderAuthentication,
			ManagedBy:                   group.ManagedBy,
		},
		Members:        snapshotMembers,
		SendAsTrustees: sendAsTrustees,
	}
}

// GroupSettings converts the preserved group information into a creation payload.
func (snapshot Snapshot) GroupSettings() graphapi.GroupSettings {
	return graphapi.GroupSettings{
		DisplayName:                 snapshot.GroupInfo.DisplayName,
		Alias:                       snapshot.GroupInfo.Alias,
		PrimarySMTPAddress:          snapshot.GroupInfo.PrimarySMTPAddress,
		Notes:                       snapshot.GroupInfo.Notes,
		HiddenFromAddressLists:      snapshot.GroupInfo.HiddenFromAddressLists,
		RequireSenderAuthentication: snapshot.GroupInfo.RequireSenderAuthentication,
		ManagedBy:                   snapshot.GroupInfo.ManagedBy,
	}
}

// MemberAddresses returns the SMTP addresses of every preserved member.
func (snapshot Snapshot) MemberAddresses() []string {
	memberAddresses := make([]string, 0, len(snapshot.Members))
	for _, snapshotMember := range snapshot.Members {
		memberAddresses = append(memberAddresses, snapshotMember.PrimarySMTPAddress)
	}
	return memberAddresses
}
