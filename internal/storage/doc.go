// Package storage provides the durable key/value storage that mirrors the
// current session token across process restarts, the command-line
// counterpart of browser local storage.
package storage
