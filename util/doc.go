// Package util holds small generic helpers for optional config values.
package util
