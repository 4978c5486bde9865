package certificate

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"go-carbon-registry-ui/internal/registry"
)

func testCredit(t *testing.T) registry.Credit {
	t.Helper()
	c := registry.Credit{UnicID: "VCS-0612-2020-031", ProjectName: "Kariba Forest Protection", Vintage: 2020, Status: "Active"}
	if err := c.Normalize(); err != nil {
		t.Fatalf("failed to normalize credit: %v", err)
	}
	return c
}

func TestGenerate_HTML(t *testing.T) {
	now := time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)
	doc, err := Generate(testCredit(t), "html", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.ContentType != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type: %s", doc.ContentType)
	}
	if doc.Filename != "certificate_VCS-0612-2020-031.html" {
		t.Fatalf("unexpected filename: %s", doc.Filename)
	}

	body := string(doc.Body)
	for _, want := range []string{"VCS-0612-2020-031", "Kariba Forest Protection", "2020", "Active", "2025-07-14 09:30:00 UTC", doc.Certificate.ID} {
		if !strings.Contains(body, want) {
			t.Fatalf("html body missing %q", want)
		}
	}
}

func TestGenerate_PDF(t *testing.T) {
	doc, err := Generate(testCredit(t), "pdf", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.ContentType != "application/pdf" {
		t.Fatalf("unexpected content type: %s", doc.ContentType)
	}
	if !bytes.HasPrefix(doc.Body, []byte("%PDF")) {
		t.Fatalf("pdf body does not start with %%PDF header")
	}
	if !strings.HasSuffix(doc.Filename, ".pdf") {
		t.Fatalf("unexpected filename: %s", doc.Filename)
	}
}

func TestGenerate_UnknownFormat(t *testing.T) {
	if _, err := Generate(testCredit(t), "docx", time.Now()); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestGenerate_UniqueCertificateIDs(t *testing.T) {
	a, err := Generate(testCredit(t), "html", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Generate(testCredit(t), "html", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Certificate.ID == b.Certificate.ID {
		t.Fatalf("certificate ids should be unique, both %s", a.Certificate.ID)
	}
}

func TestValidFormat(t *testing.T) {
	for _, ok := range []string{"html", "pdf", " PDF ", "HTML"} {
		if !ValidFormat(ok) {
			t.Fatalf("expected %q to be valid", ok)
		}
	}
	for _, bad := range []string{"", "docx", "csv"} {
		if ValidFormat(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
}

func TestFilename_SanitizesID(t *testing.T) {
	got := Filename("VCS 0612/2020", "pdf")
	if got != "certificate_VCS_0612_2020.pdf" {
		t.Fatalf("unexpected filename: %s", got)
	}
	if Filename("  ", "html") != "certificate_credit.html" {
		t.Fatalf("expected fallback name for blank id")
	}
}
