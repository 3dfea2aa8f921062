// Package wrapper provides the standard decorators for storage commands.
package wrapper
