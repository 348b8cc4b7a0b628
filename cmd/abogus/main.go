// Package main provides the entry point for the abogus CLI.
//
// abogus computes the a_bogus request signature by running an external
// signing script in an embedded JavaScript engine, and generates ms_token
// values. It never sends a request itself.
//
// Usage:
//
//	abogus sign <url>
//	abogus sign --list <file>
//	abogus token
//
// See --help for all available options.
package main

// main is the entry point for abogus.
func main() {
	Execute()
}
