// Package reconciler converges deployed helm releases toward the stored
// desired state.
//
// A sweep lists every desired-state record once, then for each record asks
// the deployment driver for the release's actual status and picks one of
// three actions with [Decide]:
//
//	desired   actual    updatedAt vs lastDeployed   action
//	running   absent    -                           InstallOrUpgrade
//	running   present   updatedAt > lastDeployed    InstallOrUpgrade
//	running   present   updatedAt <= lastDeployed   NoAction
//	deleted   present   -                           Uninstall
//	deleted   absent    -                           NoAction
//
// Failures are isolated per record: they are logged with the release name
// and never abort the sweep. The next sweep is the retry. Only a failure to
// list the records aborts a sweep, with a [*StoreUnavailableError].
package reconciler
