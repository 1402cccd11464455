// Package fuzztests houses Go fuzz harnesses for the tree reader and the
// IR assembler. Arbitrary bytes must never panic either of them, and any
// IR they do produce must pass validation.
package fuzztests
