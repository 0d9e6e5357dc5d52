package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	} else if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fx.New(appOptions(cfg)).Run()
}
