package flags

import (
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestAddToggleFlagParsesValues(testInstance *testing.T) {
	testCases := []struct {
		name                string
		arguments           []string
		expectedValue       bool
		expectedChanged     bool
		expectedPositionals []string
	}{
		{name: "default_false", arguments: []string{}},
		{name: "implicit_true", arguments: []string{"--fetch"}, expectedValue: true, expectedChanged: true},
		{name: "explicit_yes", arguments: []string{"--fetch", "yes"}, expectedValue: true, expectedChanged: true},
		{name: "explicit_true_uppercase", arguments: []string{"--fetch", "TRUE"}, expectedValue: true, expectedChanged: true},
		{name: "explicit_no", arguments: []string{"--fetch", "no"}, expectedChanged: true},
		{name: "assignment_off", arguments: []string{"--fetch=off"}, expectedChanged: true},
		{name: "shorthand_no", arguments: []string{"-f", "no"}, expectedChanged: true},
		{
			name:                "search_path_is_not_consumed",
			arguments:           []string{"--fetch", "/srv/checkouts"},
			expectedValue:       true,
			expectedChanged:     true,
			expectedPositionals: []string{"/srv/checkouts"},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			command := &cobra.Command{}

			var toggleValue bool
			AddToggleFlag(command.Flags(), &toggleValue, "fetch", "f", false, "Fetch remotes")

			normalizedArguments := NormalizeToggleArguments(command.Flags(), testCase.arguments)
			require.NoError(testInstance, command.ParseFlags(normalizedArguments))
			require.Equal(testInstance, testCase.expectedValue, toggleValue)

			flag := command.Flags().Lookup("fetch")
			require.NotNil(testInstance, flag)
			require.Equal(testInstance, testCase.expectedChanged, flag.Changed)
			if testCase.expectedPositionals != nil {
				require.Equal(testInstance, testCase.expectedPositionals, command.Flags().Args())
			}
		})
	}
}

func TestAddToggleFlagRejectsInvalidValues(testInstance *testing.T) {
	command := &cobra.Command{}

	var toggleValue bool
	AddToggleFlag(command.Flags(), &toggleValue, "fetch", "", true, "Fetch remotes")

	require.Error(testInstance, command.ParseFlags([]string{"--fetch=maybe"}))
	require.True(testInstance, toggleValue)
	require.Equal(testInstance, "`<YES|no>` Fetch remotes", command.Flags().Lookup("fetch").Usage)
}

func TestNormalizeToggleArgumentsLeavesOtherFlags(testInstance *testing.T) {
	command := &cobra.Command{}
	var toggleValue bool
	AddToggleFlag(command.Flags(), &toggleValue, "fetch", "", false, "")
	command.Flags().String("log-level", "", "")

	normalized := NormalizeToggleArguments(command.Flags(), []string{"--log-level", "no", "--fetch", "no", "--", "--fetch", "yes"})
	require.Equal(testInstance, []string{"--log-level", "no", "--fetch=no", "--", "--fetch", "yes"}, normalized)
	require.Nil(testInstance, NormalizeToggleArguments(command.Flags(), nil))
}
