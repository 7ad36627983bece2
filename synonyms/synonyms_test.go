//go:build cgo

package synonyms

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brunobiangulo/casearch/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), 4)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func TestExpandQueryInvariants(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, q := range []string{
		"what is the sick leave policy",
		"overtime rate",
		"completely unknown nonsense words",
		"",
	} {
		expanded := svc.ExpandQuery(ctx, q)
		if len(expanded) < 1 {
			t.Fatalf("ExpandQuery(%q) returned empty", q)
		}
		if expanded[0] != q {
			t.Errorf("ExpandQuery(%q)[0] = %q, want original", q, expanded[0])
		}
	}
}

func TestExpandQuerySubstitutes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	expanded := svc.ExpandQuery(ctx, "what is the sick leave policy")
	if len(expanded) < 2 {
		t.Fatalf("expected synonym variants, got %v", expanded)
	}

	found := false
	for _, v := range expanded[1:] {
		if strings.Contains(v, "sick time") || strings.Contains(v, "sick days") ||
			strings.Contains(v, "medical leave") {
			found = true
		}
		if v == expanded[0] {
			t.Errorf("duplicate of original in variants: %q", v)
		}
	}
	if !found {
		t.Errorf("no sick-leave synonym variant in %v", expanded)
	}
}

func TestExpandQueryLongestMatchFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// "leave of absence" (16 chars) must be substituted as a unit, not
	// torn apart by a shorter contained term.
	expanded := svc.ExpandQuery(ctx, "leave of absence rules")
	found := false
	for _, v := range expanded {
		if strings.Contains(v, "unpaid leave") || strings.Contains(v, "personal leave") || strings.Contains(v, "loa") {
			found = true
		}
	}
	if !found {
		t.Errorf("longest-match substitution missing: %v", expanded)
	}
}

func TestSynonymsBidirectional(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	forward := svc.Synonyms(ctx, "sick leave")
	if len(forward) < 3 {
		t.Fatalf("expected several synonyms, got %v", forward)
	}

	// A synonym maps back to the same family.
	backward := svc.Synonyms(ctx, "sick time")
	if backward[0] != "sick leave" {
		t.Errorf("reverse lookup canonical: got %q", backward[0])
	}

	unknown := svc.Synonyms(ctx, "zyzzyva")
	if len(unknown) != 1 || unknown[0] != "zyzzyva" {
		t.Errorf("unknown term: %v", unknown)
	}
}

func TestCustomOverlayAndInvalidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Warm the cache first.
	_ = svc.ExpandQuery(ctx, "banked time")

	if _, err := svc.SaveCustom(ctx, map[string][]string{
		"float day": {"floater", "floating holiday"},
	}, false); err != nil {
		t.Fatalf("save: %v", err)
	}

	syns := svc.Synonyms(ctx, "floater")
	if syns[0] != "float day" {
		t.Errorf("custom reverse lookup after save: %v", syns)
	}

	deleted, err := svc.DeleteCustom(ctx, "float day")
	if err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	syns = svc.Synonyms(ctx, "floater")
	if len(syns) != 1 || syns[0] != "floater" {
		t.Errorf("cache not invalidated after delete: %v", syns)
	}
}

func TestSaveCustomRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	entries := map[string][]string{
		"wellness day": {"wellness leave", "personal wellness"},
	}
	if _, err := svc.SaveCustom(ctx, entries, true); err != nil {
		t.Fatalf("save: %v", err)
	}

	custom, err := svc.Custom(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(custom["wellness day"]) != 2 {
		t.Errorf("round trip: %+v", custom)
	}
}

// ---------------------------------------------------------------------------
// Document reference detection
// ---------------------------------------------------------------------------

func seedIndexed(t *testing.T, s *store.Store, filename, shortName, employer string) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := s.InsertFile(ctx, store.File{
		Path:     "/docs/" + filename,
		Filename: filename,
		SHA256:   "x",
		Mtime:    1,
		Size:     1,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.DB().Exec(
		"UPDATE files SET status = 'indexed', short_name = ?, employer_name = ? WHERE id = ?",
		shortName, employer, id); err != nil {
		t.Fatalf("update metadata: %v", err)
	}
	return id
}

func TestDetectDocumentReference(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	spruceID := seedIndexed(t, s, "collective_agreement_spruce_grove.pdf", "Spruce Grove", "City of Spruce Grove")
	seedIndexed(t, s, "ca-leduc.pdf", "Leduc", "City of Leduc")

	fileID, remaining := svc.DetectDocumentReference(ctx, "sick leave for Spruce Grove")
	if fileID != spruceID {
		t.Fatalf("file id: got %d, want %d", fileID, spruceID)
	}
	if strings.Contains(strings.ToLower(remaining), "spruce") {
		t.Errorf("reference not removed: %q", remaining)
	}
	if !strings.Contains(remaining, "sick leave") {
		t.Errorf("topic lost: %q", remaining)
	}
}

func TestDetectDocumentReferencePossessive(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	spruceID := seedIndexed(t, s, "spruce_grove.pdf", "Spruce Grove", "")

	fileID, remaining := svc.DetectDocumentReference(ctx, "Spruce Grove's overtime policy")
	if fileID != spruceID {
		t.Fatalf("file id: got %d, want %d", fileID, spruceID)
	}
	if !strings.Contains(remaining, "overtime policy") {
		t.Errorf("remaining: %q", remaining)
	}
}

func TestDetectDocumentReferenceNone(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	seedIndexed(t, s, "spruce_grove.pdf", "Spruce Grove", "")

	fileID, remaining := svc.DetectDocumentReference(ctx, "what is the grievance procedure")
	if fileID != 0 {
		t.Fatalf("expected no match, got %d", fileID)
	}
	if remaining != "what is the grievance procedure" {
		t.Errorf("query altered: %q", remaining)
	}
}

func TestDetectDocumentReferenceOnlyIndexedFiles(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	// Pending file: not a candidate.
	if _, err := s.InsertFile(ctx, store.File{
		Path: "/docs/pending_grove.pdf", Filename: "pending_grove.pdf",
		SHA256: "x", Mtime: 1, Size: 1,
	}); err != nil {
		t.Fatal(err)
	}

	fileID, _ := svc.DetectDocumentReference(ctx, "sick leave for pending grove")
	if fileID != 0 {
		t.Fatalf("pending file matched: %d", fileID)
	}
}

// ---------------------------------------------------------------------------
// Upload parsing
// ---------------------------------------------------------------------------

func TestParseUploadedCSV(t *testing.T) {
	content := []byte("# comment line\nsick leave,wellness days,recovery days\novertime,extra hours\nshortrow\n")
	got, err := ParseUploaded(content, "synonyms.csv")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries: %+v", got)
	}
	if got["sick leave"][1] != "recovery days" {
		t.Errorf("values: %+v", got["sick leave"])
	}
}

func TestParseUploadedJSON(t *testing.T) {
	content := []byte(`{"Sick Leave": ["Wellness Days", " recovery days "]}`)
	got, err := ParseUploaded(content, "synonyms.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got["sick leave"][0] != "wellness days" || got["sick leave"][1] != "recovery days" {
		t.Errorf("normalization: %+v", got)
	}
}

func TestParseUploadedUnknownFormat(t *testing.T) {
	if _, err := ParseUploaded([]byte("x"), "synonyms.txt"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	data := map[string][]string{
		"sick leave": {"wellness days"},
		"overtime":   {"extra hours", "ot pay"},
	}

	var out bytes.Buffer
	if err := ExportXLSX(data, &out); err != nil {
		t.Fatalf("export: %v", err)
	}

	got, err := ParseUploaded(out.Bytes(), "synonyms.xlsx")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 || got["overtime"][1] != "ot pay" {
		t.Errorf("round trip: %+v", got)
	}
}
