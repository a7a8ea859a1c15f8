// Package mdtypst builds documentation pages from Markdown with embedded
// Typst math, Typst and diagram blocks, and executable code blocks.
//
// # Quick Start
//
// Create a builder and build a document:
//
//	b, err := mdtypst.NewBuilder()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := b.Build(ctx, mdtypst.Input{
//	    Markdown: "# Hello\n\nEuler: $e^(i pi) + 1 = 0$",
//	    Path:     "docs/hello.md",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("hello.html", result.HTML, 0644)
//
// # Build Pipeline
//
// Each build follows these stages:
//
//  1. Preprocessing (line endings, YAML or TOML front matter)
//  2. Parsing via goldmark; $...$ and $$...$$ spans in paragraphs become
//     math placeholders, math in headings becomes Unicode text, and fenced
//     blocks are classified as executable code, code with captured output,
//     Typst blocks or diagrams
//  3. Resolution: every placeholder is rendered by the typst CLI or run by
//     its interpreter, concurrently, and all results are awaited
//  4. HTML rendering, link rewriting and the page template
//
// Render failures do not fail a build. They appear as inline
// "[Typst Error: ...]" markers and are listed in Result.Failures.
//
// # Code Execution
//
// Blocks tagged "code" run in their :language interpreter (python by
// default). Blocks sharing a :session run cumulatively in source order, so
// later blocks see earlier definitions, and each block records only the
// output it added. Result.Outputs maps "<filename>::<id>" to that output;
// WriteOutputs persists it as JSON.
//
//	```code :language python :session intro :id setup
//	x = 21
//	```
//
// Lean blocks run statement by statement and record a JSON array of
// {statement, output} pairs.
//
// # Configuration
//
// Use functional options to customize the builder:
//
//	b, err := mdtypst.NewBuilder(
//	    mdtypst.WithTypstBinary("/opt/typst/bin/typst"),
//	    mdtypst.WithRenderTimeout(time.Minute),
//	    mdtypst.WithInterpreter(mdtypst.Interpreter{
//	        Command:   "node",
//	        Extension: "js",
//	    }, "js", "javascript"),
//	)
//
// # Custom Assets
//
// Override the built-in stylesheet and page template using AssetLoader:
//
//	loader, err := mdtypst.NewAssetLoader("/path/to/assets")
//	b, err := mdtypst.NewBuilder(mdtypst.WithAssetLoader(loader))
//
// Asset directory structure:
//
//	assets/
//	├── styles/
//	│   └── custom.css
//	└── templates/
//	    └── custom.html
//
// # Toolchain Requirements
//
// Math and diagrams need the typst CLI on PATH (or WithTypstBinary);
// diagrams import the @preview/commute package, which typst downloads on
// first use. Code blocks need their interpreters, python3 and lean by
// default.
package mdtypst
