package main

import "github.com/kamal-hamza/docusage/cmd"

func main() {
	cmd.Execute()
}
