package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/quire/pkg/domain"
)

func TestBuilder_SimpleDocument(t *testing.T) {
	doc := New().Title("Hello").
		Page().Text("hi").End().
		Build()

	if doc.Kind != domain.KindDocument {
		t.Fatalf("Expected DOCUMENT root, got %s", doc.Kind)
	}
	if doc.Props["title"] != "Hello" {
		t.Errorf("Expected title 'Hello', got %v", doc.Props["title"])
	}
	if len(doc.Children) != 1 || doc.Children[0].Kind != domain.KindPage {
		t.Fatalf("Expected one PAGE, got %+v", doc.Children)
	}
	text := doc.Children[0].Children[0]
	if text.Kind != domain.KindText || text.Text != "hi" {
		t.Errorf("Expected TEXT 'hi', got %s %q", text.Kind, text.Text)
	}
}

func TestBuilder_NestedBlocks(t *testing.T) {
	called := false
	b := New().OnRender(func(context.Context, domain.RenderResult) error {
		called = true
		return nil
	})
	b.Page().Size("LETTER").Landscape().
		View().Fixed().Key("header").Style("backgroundColor", "#eee").
		Text("Header", Props{"fontSize": 8}).
		End().
		Paragraph(Span("Read "), LinkSpan("more", "https://example.com")).
		Image("logo.png", Props{"width": 64}).
		Note("reviewed").
		Canvas(40, func(p domain.Painter, w, h float64) { p.Rect(0, 0, w, h) }).
		View().Break().Text("Appendix").End().
		End()

	doc := b.Build()
	page := doc.Children[0]
	if page.Props["size"] != "LETTER" || page.Props["orientation"] != "landscape" {
		t.Errorf("Unexpected page props %v", page.Props)
	}
	if len(page.Children) != 6 {
		t.Fatalf("Expected 6 page children, got %d", len(page.Children))
	}

	header := page.Children[0]
	if header.Key != "header" || header.Props[domain.PropFixed] != true {
		t.Errorf("Unexpected header %+v", header)
	}
	if style, _ := header.Props[domain.PropStyle].(map[string]any); style["backgroundColor"] != "#eee" {
		t.Errorf("Expected nested style, got %v", header.Props)
	}

	para := page.Children[1]
	if len(para.Children) != 2 || para.Children[1].Kind != domain.KindLink {
		t.Errorf("Unexpected paragraph %+v", para)
	}
	if page.Children[2].Props[domain.PropSrc] != "logo.png" {
		t.Errorf("Unexpected image %+v", page.Children[2])
	}
	if page.Children[4].Paint == nil || page.Children[4].Props["height"] != 40.0 {
		t.Errorf("Unexpected canvas %+v", page.Children[4])
	}
	if page.Children[5].Props[domain.PropBreak] != true {
		t.Errorf("Expected break on last view")
	}

	if err := doc.OnRender(context.Background(), domain.RenderResult{}); err != nil || !called {
		t.Errorf("OnRender not carried over")
	}
}

func TestBuilder_BuildIsRepeatable(t *testing.T) {
	b := New()
	b.Page().Text("one").End()
	first := b.Build()
	b.Page().Text("two").End()
	second := b.Build()

	if len(first.Children) != 1 {
		t.Errorf("Earlier build was mutated: %d pages", len(first.Children))
	}
	if len(second.Children) != 2 {
		t.Errorf("Expected 2 pages, got %d", len(second.Children))
	}
}

func TestBuilder_DeepNesting(t *testing.T) {
	doc := New().
		Page().
		View().Key("outer").
		View().Key("inner").Text("deep").End().
		Text("after inner").
		End().
		Text("after outer").
		End().
		Page().Text("second page").End().
		Build()

	if len(doc.Children) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(doc.Children))
	}
	page := doc.Children[0]
	if len(page.Children) != 2 || page.Children[1].Text != "after outer" {
		t.Fatalf("Unexpected first page children %+v", page.Children)
	}
	outer := page.Children[0]
	if outer.Key != "outer" || len(outer.Children) != 2 || outer.Children[1].Text != "after inner" {
		t.Fatalf("Unexpected outer view %+v", outer)
	}
	inner := outer.Children[0]
	if inner.Kind != domain.KindView || inner.Key != "inner" || inner.Children[0].Text != "deep" {
		t.Errorf("Unexpected inner view %+v", inner)
	}
	if doc.Children[1].Children[0].Text != "second page" {
		t.Errorf("Unexpected second page %+v", doc.Children[1])
	}
}

func TestBuilder_EndAtDocumentLevel(t *testing.T) {
	b := New()
	top := b.Page().End()
	if top.End() != top {
		t.Errorf("Ending the document level should stay there")
	}
	if len(top.Build().Children) != 1 {
		t.Errorf("Expected the page to be kept")
	}
}
