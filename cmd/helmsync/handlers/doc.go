// Package handlers implements the business logic for helmsync CLI commands.
//
// Each handler loads the configuration, opens the desired-state store and,
// where needed, the deployment driver, then performs the command. Handlers
// write user-facing output to the supplied writer; diagnostic logging goes
// through the controller-runtime logger.
package handlers
