package extract

import (
	"fmt"
	"strings"
	"testing"
)

func TestNavLinks(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><header><a href='/'>Home</a><a href='/about'>Home</a>")
	b.WriteString("<a href='javascript:void(0)'>Menu</a>")
	b.WriteString("<a href='/long'>" + strings.Repeat("x", 80) + "</a></header><nav>")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "<a href='/p%d'>Page %d</a>", i, i)
	}
	b.WriteString("</nav></body></html>")

	links := NavLinks(mustDoc(t, b.String()), "https://example.com/")

	if len(links) != maxNavLinks {
		t.Fatalf("Expected %d nav links, got %d", maxNavLinks, len(links))
	}
	if links[0].Text != "Home" || links[0].Href != "https://example.com/" {
		t.Errorf("First link = %+v", links[0])
	}
	if links[1].Href != "https://example.com/long" || len(links[1].Text) != maxLabelChars {
		t.Errorf("Long link not truncated: %+v", links[1])
	}
	for _, l := range links {
		if l.Text == "Menu" {
			t.Error("javascript: link should be skipped")
		}
	}
}

func TestPrimaryCTAs(t *testing.T) {
	html := `
		<html><body>
			<section class="hero"><a href="/start">Get started</a></section>
			<a class="cta" href="/demo">Book a demo</a>
			<a href="/signup">Sign up</a>
			<a href="/contact">Contact</a>
			<form><button type="submit">Send</button><input type="submit" value="Go"></form>
			<a class="btn-primary" href="/buy">Buy now</a>
		</body></html>
	`

	ctas := PrimaryCTAs(mustDoc(t, html), "https://example.com/")

	if len(ctas) != maxCTAs {
		t.Fatalf("Expected %d CTAs, got %d: %+v", maxCTAs, len(ctas), ctas)
	}
	if ctas[0].Text != "Send" || ctas[0].Selector != "button[type='submit']" {
		t.Errorf("First CTA = %+v", ctas[0])
	}
	if ctas[1].Text != "Buy now" || ctas[1].Href != "https://example.com/buy" {
		t.Errorf("Second CTA = %+v", ctas[1])
	}
}

func TestForms(t *testing.T) {
	html := `
		<html><body>
			<form id="newsletter">
				<input type="hidden" name="token">
				<input type="email" name="email">
				<input type="email" name="email">
				<textarea name="msg"></textarea>
			</form>
			<form class="search big"><input type="text" name="q"></form>
			<form action="/login"><input name="user"></form>
			<form><input name="ignored"></form>
		</body></html>
	`

	forms := Forms(mustDoc(t, html))

	if len(forms) != maxForms {
		t.Fatalf("Expected %d forms, got %d", maxForms, len(forms))
	}
	if forms[0].Selector != "form#newsletter" {
		t.Errorf("Selector = %q", forms[0].Selector)
	}
	if strings.Join(forms[0].Fields, ",") != "email:email,msg:textarea" {
		t.Errorf("Fields = %v", forms[0].Fields)
	}
	if forms[1].Selector != "form.search" {
		t.Errorf("Selector = %q", forms[1].Selector)
	}
	if forms[2].Selector != "form[action='/login']" {
		t.Errorf("Selector = %q", forms[2].Selector)
	}
}
