// Package main provides the entry point for the GradScan CLI.
//
// GradScan collects graduate admissions results from the GradCafe survey,
// standardizes them, loads them into SQLite, and answers a fixed set of
// analysis questions.
//
// Usage:
//
//	gradscan scrape
//	gradscan run
//	gradscan analyze --markdown
//
// See --help for all available options.
package main

// main is the entry point for GradScan.
func main() {
	Execute()
}
