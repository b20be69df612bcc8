/*
Package dsl provides a fluent builder for document descriptions.

It is an alternative to YAML or JSON description files when the document is
assembled in code, and gives type-checked access to callbacks (OnRender,
canvas painters) that files cannot carry.

Example usage:

	doc := dsl.New().
		Title("Report").
		OnRender(func(ctx context.Context, r domain.RenderResult) error {
			log.Printf("%d pages", r.Layout.PageCount())
			return nil
		}).
		Page().Size("A4").
			View().Fixed().Text("Quarterly report").End().
			Text("Revenue grew.").
			Paragraph(dsl.Span("See "), dsl.LinkSpan("the appendix", "https://example.com")).
		End().
		Build()

Every block is closed with End, which returns the enclosing block. Closing a
page returns the document level, from which Page starts the next page and
Build finishes the description.
*/
package dsl
