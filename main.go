package main

import (
	"github.com/sidkik/workon/cmd"
	"github.com/sidkik/workon/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
