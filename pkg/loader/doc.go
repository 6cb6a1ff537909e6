// Package loader resolves and evaluates application modules by path.
//
// Every failure is reported as an *Error whose Kind separates a module that
// does not exist (KindNotFound) from one that exists but failed to evaluate
// (KindLoad). Callers that tolerate missing modules must check the kind with
// IsNotFound and let every other failure propagate.
//
// Three implementations are provided:
//   - Table: modules compiled into the binary and registered by id
//   - Script: JavaScript files evaluated with goja
//   - Chain: tries several loaders in order
package loader
