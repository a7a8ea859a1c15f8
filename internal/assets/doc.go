// Package assets provides the stylesheets and page templates of the HTML
// output.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the build. It tries the custom
// FilesystemLoader first, falling back to EmbeddedLoader if the asset is not
// found, so a site can override the page template and keep the default
// stylesheet.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css      # Stylesheets (e.g., default.css)
//	└── templates/
//	    └── {name}.html     # Page templates (e.g., page.html)
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
