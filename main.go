// Package main provides the entry point for the Tenantline Console,
// the administrative web console of the tenantline platform.
package main

import (
	"os"

	"github.com/tenantline/tenantline-console/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
