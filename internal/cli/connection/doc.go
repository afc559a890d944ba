// Package connection provides server communication for inkroom-cli.
package connection
