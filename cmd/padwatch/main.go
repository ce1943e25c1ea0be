// Package main provides the entry point for the padwatch CLI.
//
// padwatch watches a set of collaborative markdown pad servers, follows
// links between pads and posts a diff to a chat room once an edited pad
// has stopped changing.
//
// Usage:
//
//	padwatch init
//	padwatch watch
//	padwatch watch --once
//
// See --help for all available options.
package main

import _ "github.com/joho/godotenv/autoload"

func main() {
	Execute()
}
