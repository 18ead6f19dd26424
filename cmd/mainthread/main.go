package main

import (
	"runtime"

	"github.com/ygrebnov/mainthread/internal/cli"
)

// Keep main on the process's first OS thread so the dispatch loop owns it.
func init() {
	runtime.LockOSThread()
}

func main() {
	cli.Execute()
}
