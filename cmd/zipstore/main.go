package main

import (
	"os"
	"strings"

	"github.com/mcdonaldj/zipstore/internal/cli"
)

// version is set via ldflags at build time: -ldflags "-X main.version=x.y.z"
var version = "dev"

func main() {
	c := cli.New(version)

	// A lone archive argument opens the browser
	if len(os.Args) == 2 && strings.HasSuffix(strings.ToLower(os.Args[1]), ".zip") {
		c.Args = []string{os.Args[0], "browse", os.Args[1]}
	}

	c.Run()
}
