package main

import (
	"github.com/veerababu74/spunkads/cmd"
)

func main() {
	cmd.Execute()
}
