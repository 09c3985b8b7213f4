/*
Package session implements the reconciliation session between a source tree
and a destination tree.

A session moves through the following states:

	Comparing -> Watching                                      (already in sync)
	Comparing -> ChoosingDirection -> Terminated               (user aborts)
	Comparing -> ChoosingDirection -> ConfirmingSync -> Terminated
	Comparing -> ChoosingDirection -> ConfirmingSync -> Watching

Syncs mirror one tree onto the other and delete whatever is missing from the
sending side, so a real sync is always preceded by a dry run whose output is
shown to the user. Once the trees agree, the session watches the source tree
and pushes changes to the destination, at most once per interval.

The session itself is strictly sequential. It blocks on every executor run,
and change notifications that arrive during a sync are only read once the
sync returns.
*/
package session
