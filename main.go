package main

import (
	"os"

	"github.com/vsecure-io/vsecure/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
