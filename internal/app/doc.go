// Package app wires configuration, the token store, the API client and the
// web server into the operations behind each CLI command.
package app
