// Package main is the scraper CLI entrypoint.
package main

import "github.com/Jul352mf/THE-Email-Scraper/cmd"

func main() {
	cmd.Execute()
}
