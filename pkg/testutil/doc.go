// Package testutil provides helpers shared by the dynreg test suites.
//
//   - Recorder: counts and keeps the notifications delivered by a Notifier
//   - Isolate: points the XDG directories and DYNREG_ environment at a
//     per-test temporary tree
//   - CreateFile: writes fixture files inline
package testutil
