package main

import (
	"github.com/robotalks/monowheel/pkg/cli/sh"
	"github.com/robotalks/monowheel/pkg/telemetry"

	_ "github.com/robotalks/monowheel/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	telemetry.SetupClientFlags()
}

func main() {
	sh.Main()
}
