// Package providers holds the payload inspection helpers shared by the
// built-in webhook adapters. Each provider lives in its own subpackage.
package providers
