// Command papertag downloads research papers and sorts them into per-category
// tables using an LLM classifier.
//
// Usage:
//
//	papertag [annotate] [--source dir] [--output dir] [--batch-size n] [--daily-limit n]
//	papertag crawl [--years 2019,2020] [--output dir]
//	papertag version
package main
