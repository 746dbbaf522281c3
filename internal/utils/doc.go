// Package utils provides small helpers shared across the application:
// file checks, content type detection, URL origin comparison and randomized pauses.
package utils
