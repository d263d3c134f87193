package main

import (
	"github.com/ColonelBlimp/tonecast/cmd"
	"github.com/ColonelBlimp/tonecast/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
