// Package repository models the synchronization state of git checkouts.
//
// Inspector turns a directory into a RepositoryInfo snapshot, FetchCoordinator
// refreshes every remote and attributes failures to the remote being fetched,
// HeadReconciler classifies a local branch against the ancestry of its
// remote-tracking branch, and BranchUpdater performs fast-forward updates.
// All of them shell out to git through a GitExecutor and interpret its text
// using the argument templates held in a CommandTable.
package repository
