// Package fileutil holds small filesystem helpers shared by the cast store
// and the PNG display driver.
package fileutil
