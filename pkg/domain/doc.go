/*
Package domain contains the core types of the Quire rendering model.

It defines the closed set of node kinds, the declarative tree description
submitted by callers, the artifacts a render pass produces and the errors and
lifecycle events sessions report. This package is kept pure and free of I/O,
following Hexagonal Architecture principles.

# Key Entities

  - Kind: Tag of a tree node (DOCUMENT, PAGE, VIEW, TEXT, LINK, NOTE, IMAGE, CANVAS).
  - Element: Declarative description of a document tree.
  - LayoutData: Pagination and geometry facts computed during a render pass.
  - Blob: Downloadable object produced by a render pass.
  - Outcome: Closed sum of render artifacts (buffer, blob, text) given to render callbacks.
*/
package domain
