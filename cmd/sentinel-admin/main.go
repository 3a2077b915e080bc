package main

import (
	"github.com/turtacn/sentinel/cmd/cli"
)

// main is the entry point for the sentinel-admin command-line tool.
// main 是 sentinel-admin 命令行工具的入口点。
func main() {
	cli.Execute()
}
