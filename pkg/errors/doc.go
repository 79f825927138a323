// Package errors defines the failure taxonomy shared by the schema, dynamic
// object, registry and directory layers. Every failure carries an ErrorCode so
// callers and tests can branch on the kind without matching message text.
package errors
