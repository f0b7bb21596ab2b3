// Package utils provides shared infrastructure for grouplift commands:
// configuration loading backed by Viper, zap logger construction, and
// helpers for values carried through command execution contexts.
package utils
