// Package pipeline implements the Markdown-to-HTML build of one document.
//
// The stages run in order:
//   - Preprocessing (line ending normalization, front matter)
//   - Parsing via goldmark, with the math span and code block passes
//     turning notation into placeholder nodes
//   - Resolution of the placeholders through a MathRenderer and a
//     CodeRunner, all launched concurrently and awaited together
//   - HTML rendering of the resolved tree, link rewriting and the optional
//     page template
//
// Compilation and execution live in the render and execute packages; this
// package only decides what to send them and where the results go.
package pipeline
