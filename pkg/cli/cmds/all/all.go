// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/monowheel/pkg/cli/cmds/balance"
)
