// Package testseam lets tests inside this module build connection managers around fake adapters.
package testseam

import "github.com/AntonStoeckl/relational-persistence-go/persistence/internal/adapters"

// ManagerFromAdapter is installed by the connection package. It returns a borrowed-mode
// *connection.Manager around adapter that reports open only if open is true.
var ManagerFromAdapter func(adapter adapters.DBAdapter, open bool) any
