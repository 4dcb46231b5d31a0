// Package oteladapters provides OpenTelemetry adapters for the persistence observability interfaces.
// These adapters enable integration with OpenTelemetry for users who want
// plug-and-play observability without implementing the interfaces themselves.
package oteladapters
