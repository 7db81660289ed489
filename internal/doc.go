// Package internal contains the implementation packages of the quire
// static site generator. None of them are importable outside this module.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - value: the variable model (scalars, sequences, mappings) and layered scopes
//   - liquid: tag scanning and the if, unless, for, assign and render processors
//   - markdown: the built-in Markdown converter and the goldmark engine
//   - pipeline: per-page rendering from template text to finished HTML
//   - content: front matter, posts, pages, partials and data files
//   - build: the generation run with its worker pool, pagination, feed and writer
//   - watcher: file system monitoring with debouncing
//   - server: the development server with live reload over websocket
//   - scaffolding: starter sites for quire init
//   - config, logging, errors, validation, version: shared infrastructure
//
// # Data Flow
//
// A build reads the source tree into content collections, freezes the
// partial table and the global scope, then renders every page through the
// pipeline on a pool of workers. The watcher feeds change batches back into
// a new build, and the server broadcasts each result to connected browsers.
//
// # Security Considerations
//
//   - Partial names, slugs and layout names never leave their directory
//   - Config paths are checked against system directories
//   - The development server validates websocket origins and request paths
//
// For detailed documentation, see the individual package documentation.
package internal
