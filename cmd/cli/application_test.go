package cli_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grouplift/grouplift/cmd/cli"
)

const (
	expectedRootCommandNameConstant = "grouplift"
)

func TestNewApplicationRegistersSubcommands(testInstance *testing.T) {
	testInstance.Parallel()

	application := cli.NewApplication()
	rootCommand := application.RootCommand()
	require.Equal(testInstance, expectedRootCommandNameConstant, rootCommand.Name())

	expectedSubcommands := []string{"clone", "contact", "convert", "restore", "backup", "inspect"}
	registeredSubcommands := map[string]bool{}
	for _, subcommand := range rootCommand.Commands() {
		registeredSubcommands[subcommand.Name()] = true
	}

	for subcommandIndex, subcommandName := range expectedSubcommands {
		testInstance.Run(fmt.Sprintf("%d_%s", subcommandIndex, subcommandName), func(subTest *testing.T) {
			require.True(subTest, registeredSubcommands[subcommandName])
		})
	}
}

func TestRootCommandDisplaysHelpWithoutArguments(testInstance *testing.T) {
	application := cli.NewApplication()
	rootCommand := application.RootCommand()

	var outputBuffer bytes.Buffer
	rootCommand.SetOut(&outputBuffer)
	rootCommand.SetErr(&outputBuffer)
	rootCommand.SetArgs([]string{})

	require.NoError(testInstance, application.Execute())
	require.Contains(testInstance, outputBuffer.String(), expectedRootCommandNameConstant)
}

func TestRootCommandRejectsUnknownLogLevel(testInstance *testing.T) {
	application := cli.NewApplication()
	rootCommand := application.RootCommand()

	var outputBuffer bytes.Buffer
	rootCommand.SetOut(&outputBuffer)
	rootCommand.SetErr(&outputBuffer)
	rootCommand.SetArgs([]string{"--log-level", "chatty"})

	require.Error(testInstance, application.Execute())
}
