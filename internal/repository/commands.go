package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Operation names one git interaction issued by this package.
type Operation string

// Operations understood by the command table. Their string forms are the keys accepted under git.commands.
const (
	OperationVersion            Operation = "version"
	OperationIndexProbe         Operation = "index_probe"
	OperationUnstagedChanges    Operation = "unstaged_changes"
	OperationUntrackedFiles     Operation = "untracked_files"
	OperationListRemotes        Operation = "list_remotes"
	OperationListBranches       Operation = "list_branches"
	OperationListRemoteBranches Operation = "list_remote_branches"
	OperationResolveLocalHead   Operation = "resolve_local_head"
	OperationResolveRemoteHead  Operation = "resolve_remote_head"
	OperationRemoteAncestry     Operation = "remote_ancestry"
	OperationFetchAll           Operation = "fetch_all"
	OperationCurrentBranch      Operation = "current_branch"
	OperationUpdateLocal        Operation = "update_local"
	OperationUpdateCurrent      Operation = "update_current"
	OperationUpdateRemote       Operation = "update_remote"
	OperationListSubmodules     Operation = "list_submodules"
)

const (
	remotePlaceholderConstant           = "{remote}"
	branchPlaceholderConstant           = "{branch}"
	unknownOperationTemplateConstant    = "%w: %s"
	emptyTemplateTemplateConstant       = "%w: %s"
	unknownOperationMessageConstant     = "unknown git operation"
	emptyCommandTemplateMessageConstant = "empty git command template"
)

var (
	// ErrUnknownOperation indicates an override named an operation the table does not define.
	ErrUnknownOperation = errors.New(unknownOperationMessageConstant)
	// ErrEmptyCommandTemplate indicates an override supplied no arguments.
	ErrEmptyCommandTemplate = errors.New(emptyCommandTemplateMessageConstant)
)

// DefaultCommandTemplates returns the built-in git argument templates keyed by operation.
// Templates are whitespace separated; {remote} and {branch} are substituted per argument.
func DefaultCommandTemplates() map[Operation]string {
	return map[Operation]string{
		OperationVersion:            "version",
		OperationIndexProbe:         "diff --cached --quiet HEAD",
		OperationUnstagedChanges:    "diff --shortstat",
		OperationUntrackedFiles:     "ls-files --other --error-unmatch --exclude-standard",
		OperationListRemotes:        "remote",
		OperationListBranches:       "branch",
		OperationListRemoteBranches: "branch -r",
		OperationResolveLocalHead:   "rev-parse {branch}",
		OperationResolveRemoteHead:  "rev-parse refs/remotes/{remote}/{branch}",
		OperationRemoteAncestry:     "rev-list {remote}/{branch}",
		OperationFetchAll:           "fetch --all --prune --tags --verbose",
		OperationCurrentBranch:      "rev-parse --abbrev-ref HEAD",
		OperationUpdateLocal:        "push . refs/remotes/{remote}/{branch}:refs/heads/{branch}",
		OperationUpdateCurrent:      "merge --ff-only refs/remotes/{remote}/{branch}",
		OperationUpdateRemote:       "push {remote} {branch}",
		OperationListSubmodules:     "config --file .gitmodules --get-regexp path",
	}
}

// TemplateParameters supplies the values substituted into command templates.
type TemplateParameters struct {
	Remote string
	Branch string
}

// CommandTable maps operations to git argument templates. It is built once and shared read-only.
type CommandTable struct {
	templates map[Operation][]string
}

// NewCommandTable builds the table from the defaults and applies configuration overrides keyed by operation name.
func NewCommandTable(overrides map[string]string) (CommandTable, error) {
	templates := make(map[Operation][]string)
	for operation, template := range DefaultCommandTemplates() {
		templates[operation] = strings.Fields(template)
	}

	overrideNames := make([]string, 0, len(overrides))
	for overrideName := range overrides {
		overrideNames = append(overrideNames, overrideName)
	}
	sort.Strings(overrideNames)

	for _, overrideName := range overrideNames {
		operation := Operation(strings.TrimSpace(overrideName))
		if _, known := templates[operation]; !known {
			return CommandTable{}, fmt.Errorf(unknownOperationTemplateConstant, ErrUnknownOperation, overrideName)
		}
		overrideArguments := strings.Fields(overrides[overrideName])
		if len(overrideArguments) == 0 {
			return CommandTable{}, fmt.Errorf(emptyTemplateTemplateConstant, ErrEmptyCommandTemplate, overrideName)
		}
		templates[operation] = overrideArguments
	}

	return CommandTable{templates: templates}, nil
}

// Arguments expands the template for operation. A zero-value table falls back to the defaults.
func (table CommandTable) Arguments(operation Operation, parameters TemplateParameters) []string {
	template, exists := table.templates[operation]
	if !exists {
		template = strings.Fields(DefaultCommandTemplates()[operation])
	}

	replacer := strings.NewReplacer(remotePlaceholderConstant, parameters.Remote, branchPlaceholderConstant, parameters.Branch)
	arguments := make([]string, 0, len(template))
	for _, templateArgument := range template {
		arguments = append(arguments, replacer.Replace(templateArgument))
	}
	return arguments
}
