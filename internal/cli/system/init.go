package system

import (
	"fmt"

	"github.com/julianstephens/daybuddy/internal/cli"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Init(cmdContext()); err != nil {
		return err
	}
	fmt.Printf("Initialized daybuddy storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
