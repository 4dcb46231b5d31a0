// Package helper provides testing utilities for the PostgreSQL persistence engines.
//
// This package contains shared testing infrastructure: spies for capturing log output,
// metrics and tracing calls during tests, and the record fixtures the engine test suites
// persist.
package helper
