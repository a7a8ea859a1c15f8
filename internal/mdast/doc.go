// Package mdast defines the placeholder node kinds that the transform passes
// insert into a goldmark tree, the per-document context shared by those
// passes, and the small text helpers they rely on: the code block meta
// grammar and math content escaping.
//
// Placeholder nodes carry both their source attributes and, once the build
// has resolved them, their final content (rendered SVG or captured output).
// Each placeholder is a distinct node, so concurrent resolvers never write
// to the same slot.
package mdast
