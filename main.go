package main

import (
	"os"

	"github.com/ibeckermayer/redditpersona/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
