package main

import (
	"github.com/robotalks/flash.go/pkg/cli/sh"

	_ "github.com/robotalks/flash.go/pkg/cli/cmds/flashcmds"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
