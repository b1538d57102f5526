// Package html extracts visible text from HTML pages.
package html
