package main

import "fmt"

const (
	PRODUCT_NAME    = "Pagebind"
	PRODUCT_VERSION = "0.3.0"
)

// Set at link stage via `-ldflags "-X main.GIT_COMMIT=$(git rev-parse --short HEAD)"`
var GIT_COMMIT string

// Generator signature stamped into the preview server header.
var GENERATOR_SIGNATURE = fmt.Sprintf("%s (%s)", PRODUCT_NAME+"/"+PRODUCT_VERSION, func() string {
	if GIT_COMMIT != "" {
		return GIT_COMMIT
	}
	return "unknown"
}())
