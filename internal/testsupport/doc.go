// Package testsupport builds throwaway frame configurations and image
// fixtures for package tests.
package testsupport
