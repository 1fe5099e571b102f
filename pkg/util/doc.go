// Package util provides small helpers shared by httptape packages.
package util
