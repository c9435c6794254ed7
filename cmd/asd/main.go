package main

import (
	"github.com/autowarefoundation/autoware-system-designer/cmd/asd/internal/command"
)

func main() {
	command.Execute()
}
