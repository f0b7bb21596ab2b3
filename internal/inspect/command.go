package inspect

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grouplift/grouplift/internal/backup"
)

const (
	commandUseConstant                 = "inspect <snapshot-file>"
	commandShortDescriptionConstant    = "Display the contents of a snapshot file"
	commandLongDescriptionConstant     = "inspect reads an XML snapshot and prints the preserved group settings, members, and send-as permissions as tables."
	storeCreationErrorTemplateConstant = "unable to open snapshot store: %w"
	snapshotReadErrorTemplateConstant  = "unable to read snapshot: %w"
)

// CommandBuilder assembles the inspect Cobra command.
type CommandBuilder struct{}

// Build constructs the inspect command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE:          builder.runInspect,
	}

	return command, nil
}

func (builder *CommandBuilder) runInspect(command *cobra.Command, arguments []string) error {
	snapshotPath := strings.TrimSpace(arguments[0])

	snapshotStore, storeError := backup.NewStore(".")
	if storeError != nil {
		return fmt.Errorf(storeCreationErrorTemplateConstant, storeError)
	}

	snapshot, readError := snapshotStore.ReadSnapshot(snapshotPath)
	if readError != nil {
		return fmt.Errorf(snapshotReadErrorTemplateConstant, readError)
	}

	Render(command.OutOrStdout(), snapshot)

	return nil
}
