package graphapi

// DistributionGroup describes a mail-enabled group object in the directory.
type DistributionGroup struct {
	Identifier                  string   `json:"id"`
	DisplayName                 string   `json:"displayName"`
	Alias                       string   `json:"alias"`
	PrimarySMTPAddress          string   `json:"primarySmtpAddress"`
	EmailAddresses              []string `json:"emailAddresses"`
	Notes                       string   `json:"notes,omitempty"`
	HiddenFromAddressLists      bool     `json:"hiddenFromAddressLists"`
	RequireSenderAuthentication bool     `json:"requireSenderAuthentication"`
	ManagedBy                   []string `json:"managedBy,omitempty"`
	DirectorySynced             bool     `json:"directorySynced"`
	SyncExclusionValue          string   `json:"syncExclusionValue,omitempty"`
}

// GroupSettings describes the payload for distribution group creation.
type GroupSettings struct {
	DisplayName                 string   `json:"displayName"`
	Alias                       string   `json:"alias"`
	PrimarySMTPAddress          string   `json:"primarySmtpAddress"`
	Notes                       string   `json:"notes,omitempty"`
	HiddenFromAddressLists      bool     `json:"hiddenFromAddressLists"`
	RequireSenderAuthentication bool     `json:"requireSenderAuthentication"`
	ManagedBy                   []string `json:"managedBy,omitempty"`
}

// GroupUpdate describes a partial update applied to an existing group.
// Nil fields are omitted from the PATCH payload and remain unchanged.
type GroupUpdate struct {
	DisplayName        *string   `json:"displayName,omitempty"`
	Alias              *string   `json:"alias,omitempty"`
	PrimarySMTPAddress *string   `json:"primarySmtpAddress,omitempty"`
	EmailAddresses     *[]string `json:"emailAddresses,omitempty"`
	SyncExclusionValue *string   `json:"syncExclusionValue,omitempty"`
}

// GroupMember describes a single member of a distribution group.
type GroupMember struct {
	Identifier         string `json:"id"`
	DisplayName        string `json:"displayName"`
	PrimarySMTPAddress string `json:"primarySmtpAddress"`
	RecipientType      string `json:"recipientType"`
}

// SendAsPermission describes a send-as grant on a distribution group.
type SendAsPermission struct {
	Trustee string `json:"trustee"`
}

// MailContact describes a directory object representing an external mail recipient.
type MailContact struct {
	Identifier             string `json:"id"`
	DisplayName            string `json:"displayName"`
	Alias                  string `json:"alias"`
	ExternalEmailAddress   string `json:"externalEmailAddress"`
	HiddenFromAddressLists bool   `json:"hiddenFromAddressLists"`
}

// ContactSettings describes the payload for mail contact creation.
type ContactSettings struct {
	DisplayName            string `json:"displayName"`
	Alias                  string `json:"alias"`
	ExternalEmailAddress   string `json:"externalEmailAddress"`
	HiddenFromAddressLists bool   `json:"hiddenFromAddressLists"`
}

// RecipientResolution reports the outcome of a recipient existence probe.
type RecipientResolution struct {
	Found         bool
	Identifier    string
	RecipientType string
}
