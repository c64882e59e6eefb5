package main

import "github.com/giygas/anesdose/cmd"

// Set at build time with -ldflags "-X main.version=... -X main.build=..."
var (
	version = "dev"
	build   = "unknown"
)

func main() {
	cmd.Execute(version, build)
}
