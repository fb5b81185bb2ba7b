// Package all registers every bench shell command.
package all

import (
	_ "github.com/robotalks/rear.go/pkg/cli/cmds/dispatch"
	_ "github.com/robotalks/rear.go/pkg/cli/cmds/sensors"
)
