package main

import (
	"os"

	"github.com/autobrr/feedbot/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
