package render

import (
	"strings"
	"testing"
)

func basePage() Page {
	return Page{
		ID:       "comic-008",
		Title:    "摸鱼翻车现场",
		Topic:    "职场·摸鱼·社死瞬间",
		Category: "职场打工",
		SubTopic: "假装工作实际摸鱼",
		Images:   []string{"../img/comic-008-1.png", "../img/comic-008-2.gif"},
		SiteName: "笑点制造机",
		Footer:   "© 笑点制造机 · AI辅助创作 · 仅供娱乐",
		BackLink: "../index.html",
	}
}

func TestRenderIncludesMetadataAndImages(t *testing.T) {
	out, err := Render(basePage())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		"<title>摸鱼翻车现场 - 笑点制造机</title>",
		`href="../index.html"`,
		"← 返回笑点制造机",
		"主题：职场·摸鱼·社死瞬间",
		"职场打工 · 假装工作实际摸鱼",
		`src="../img/comic-008-1.png"`,
		`src="../img/comic-008-2.gif"`,
		"© 笑点制造机",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered page missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "ad-slot\"") || strings.Contains(html, "/hit?id=") {
		t.Fatal("ads and counter should be off by default")
	}
}

func TestRenderOptionalBlocks(t *testing.T) {
	page := basePage()
	page.AdsEnabled = true
	page.AdSlot = "1234567890"
	page.CounterURL = "https://counter.example.workers.dev/"

	out, err := Render(page)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, `data-ad-slot="1234567890"`) {
		t.Fatalf("missing ad placeholder:\n%s", html)
	}
	if !strings.Contains(html, `src="https://counter.example.workers.dev/hit?id=comic-008"`) {
		t.Fatalf("missing counter beacon:\n%s", html)
	}
}

func TestRenderEscapesText(t *testing.T) {
	page := basePage()
	page.Title = `<script>alert("x")</script>`
	out, err := Render(page)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(string(out), "<script>alert") {
		t.Fatal("title must be escaped")
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	a, err := Render(basePage())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Render(basePage())
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatal("Render should be a pure function of its input")
	}
}

func TestRenderRejectsIncompletePage(t *testing.T) {
	page := basePage()
	page.Images = nil
	if _, err := Render(page); err == nil {
		t.Fatal("expected error without images")
	}
	page = basePage()
	page.ID = ""
	if _, err := Render(page); err == nil {
		t.Fatal("expected error without id")
	}
}
