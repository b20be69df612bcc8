/*
Package quire is a document rendering session manager.

A Session owns a mutable document tree that callers update declaratively,
tracks whether the tree has changes not yet reflected in a completed render,
and exposes the rendered document in three encodings over independent render
passes:

  - ToBuffer returns the live byte stream of the pass.
  - ToBlob returns a downloadable object (application/pdf) once the stream has been accumulated.
  - ToText returns the stream assembled as a string.

# Concept

Descriptions are plain domain.Element values rooted at a DOCUMENT. Update
diffs them into the owned tree through a ports.Reconciler, so unchanged
subtrees keep their identity and resubmitting the same description is a
no-op. Output operations call a ports.Renderer once per pass; the default
renderer lays the tree out and writes PDF.

A DOCUMENT may carry an OnRender callback. It runs once per pass with a
domain.RenderResult whose Outcome tells the three paths apart:

	BufferOutcome  the caller owns the stream, no artifact
	BlobOutcome    the accumulated blob
	TextOutcome    the assembled text

# Usage

	doc := dsl.New().Title("Hello").
		Page().Text("hi").End().
		Build()

	s, err := quire.Start(&doc)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Destroy()

	b, err := s.ToBlob(ctx)
	if err != nil {
		log.Fatal(err)
	}
	os.WriteFile("hello.pdf", b.Bytes(), 0o644)

# Dirtiness

IsDirty is true once an update has changed the tree. A pass that completes
clears it, unless another update arrived while the pass was running.

Sessions are single-owner. Use pkg/session to host many sessions behind IDs
with per-ID locking and persistence.
*/
package quire
