// Package repository selects and opens the configured document.Repository backend.
package repository
