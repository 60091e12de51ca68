package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/valpere/csvtran/internal/checkpoint"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_New(t *testing.T) {
	s := newTestStore(t)
	if s == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_GetCachedTranslation_Miss(t *testing.T) {
	s := newTestStore(t)

	text, found, err := s.GetCachedTranslation(context.Background(), "Hello", "en-US", "fr-FR")
	if err != nil {
		t.Errorf("GetCachedTranslation failed: %v", err)
	}
	if found {
		t.Error("expected cache miss")
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestStore_GetCachedTranslation_Hit(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveToMemory(context.Background(), "Buy [[PH:0]] now", "en-US", "fr-FR", "Achetez [[PH:0]] maintenant", "openai")
	if err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	text, found, err := s.GetCachedTranslation(context.Background(), "  Buy [[PH:0]] now ", "en-US", "fr-FR")
	if err != nil {
		t.Errorf("GetCachedTranslation failed: %v", err)
	}
	if !found {
		t.Error("expected to find cached translation")
	}
	if text != "Achetez [[PH:0]] maintenant" {
		t.Errorf("unexpected translation %q", text)
	}
}

func TestStore_GetCachedTranslation_Invalidated(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveToMemory(context.Background(), "Hello", "en", "uk", "Привіт", "google"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	entries, err := s.ListMemory(context.Background())
	if err != nil {
		t.Fatalf("ListMemory failed: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one entry")
	}

	if err := s.InvalidateMemory(context.Background(), entries[0].ID); err != nil {
		t.Fatalf("InvalidateMemory failed: %v", err)
	}

	_, found, err := s.GetCachedTranslation(context.Background(), "Hello", "en", "uk")
	if err != nil {
		t.Errorf("GetCachedTranslation failed: %v", err)
	}
	if found {
		t.Error("expected not found for invalidated translation")
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "Hello", "en", "fr", "Bonjour", "openai")
	s.SaveToMemory(ctx, "World", "en", "fr", "Monde", "openai")
	s.GetCachedTranslation(ctx, "Hello", "en", "fr")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 2 || stats.ActiveEntries != 2 || stats.InvalidEntries != 0 {
		t.Errorf("unexpected entry counts %+v", stats)
	}
	if stats.TotalUsage != 3 {
		t.Errorf("expected total usage 3, got %d", stats.TotalUsage)
	}
}

func TestStore_DeleteAndClearMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "Hello", "en", "fr", "Bonjour", "openai")
	s.SaveToMemory(ctx, "World", "en", "fr", "Monde", "openai")

	entries, _ := s.ListMemory(ctx)
	if err := s.DeleteMemory(ctx, entries[0].ID); err != nil {
		t.Fatalf("DeleteMemory failed: %v", err)
	}
	entries, _ = s.ListMemory(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after delete, got %d", len(entries))
	}

	n, err := s.ClearMemory(ctx)
	if err != nil {
		t.Fatalf("ClearMemory failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row cleared, got %d", n)
	}
}

func TestStore_MultipleLanguagePairs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "Hello", "en", "uk", "Привіт", "google")
	s.SaveToMemory(ctx, "Hello", "en", "de", "Hallo", "google")

	text, found, _ := s.GetCachedTranslation(ctx, "Hello", "en", "uk")
	if !found || text != "Привіт" {
		t.Errorf("en->uk: expected found=true and 'Привіт', got found=%v and %q", found, text)
	}
	text, found, _ = s.GetCachedTranslation(ctx, "Hello", "en", "de")
	if !found || text != "Hallo" {
		t.Errorf("en->de: expected found=true and 'Hallo', got found=%v and %q", found, text)
	}
	if _, found, _ = s.GetCachedTranslation(ctx, "Hello", "en", "es"); found {
		t.Error("en->es: expected not found")
	}
}

func TestStore_Glossary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddGlossaryTerm(ctx, "en-US", "fr-FR", "cart", "panier"); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}
	if err := s.AddGlossaryTerm(ctx, "en-US", "fr-FR", "cart", "chariot"); err != nil {
		t.Fatalf("AddGlossaryTerm (replace) failed: %v", err)
	}
	s.AddGlossaryTerm(ctx, "en-US", "de-DE", "cart", "Warenkorb")

	terms, err := s.GetGlossaryTerms(ctx, "en-US", "fr-FR")
	if err != nil {
		t.Fatalf("GetGlossaryTerms failed: %v", err)
	}
	if len(terms) != 1 || terms["cart"] != "chariot" {
		t.Errorf("unexpected terms %v", terms)
	}

	entries, err := s.ListGlossaryTerms(ctx, "", "")
	if err != nil {
		t.Fatalf("ListGlossaryTerms failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if err := s.DeleteGlossaryTerm(ctx, entries[0].ID); err != nil {
		t.Fatalf("DeleteGlossaryTerm failed: %v", err)
	}
	entries, _ = s.ListGlossaryTerms(ctx, "en-US", "")
	if len(entries) != 1 {
		t.Errorf("expected 1 entry after delete, got %d", len(entries))
	}
}

func TestStore_GlossaryCanonicalTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddGlossaryTerm(ctx, "en_us", "FR-fr", "cart", "panier"); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}

	terms, err := s.GetGlossaryTerms(ctx, "en-US", "fr-FR")
	if err != nil {
		t.Fatalf("GetGlossaryTerms failed: %v", err)
	}
	if terms["cart"] != "panier" {
		t.Errorf("expected entry added with en_us/FR-fr to apply to en-US/fr-FR, got %v", terms)
	}

	entries, _ := s.ListGlossaryTerms(ctx, "en-us", "fr_FR")
	if len(entries) != 1 || entries[0].SourceLang != "en-US" || entries[0].TargetLang != "fr-FR" {
		t.Errorf("expected one canonical entry, got %+v", entries)
	}

	if err := s.AddGlossaryTerm(ctx, "en-US", "fr-FR", "  ", "vide"); err == nil {
		t.Error("expected error for a blank term")
	}
}

func TestStore_GlossaryBaseLanguageFallback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.AddGlossaryTerm(ctx, "en", "fr", "cart", "panier")
	s.AddGlossaryTerm(ctx, "en", "fr", "checkout", "paiement")
	s.AddGlossaryTerm(ctx, "en-US", "fr-CA", "cart", "chariot")
	s.AddGlossaryTerm(ctx, "en", "de", "cart", "Warenkorb")

	terms, err := s.GetGlossaryTerms(ctx, "en-US", "fr-CA")
	if err != nil {
		t.Fatalf("GetGlossaryTerms failed: %v", err)
	}
	if len(terms) != 2 || terms["cart"] != "chariot" || terms["checkout"] != "paiement" {
		t.Errorf("expected the exact pair to win over the base pair, got %v", terms)
	}

	terms, _ = s.GetGlossaryTerms(ctx, "en-GB", "fr-FR")
	if len(terms) != 2 || terms["cart"] != "panier" {
		t.Errorf("expected base entries only for en-GB/fr-FR, got %v", terms)
	}
}

func TestStore_JobOptionsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	id, err := s.CreateJob(ctx, "in.csv", "out.csv", "de-DE", "exclude_columns:\n  - sku\n")
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	s.Close()

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	job, err := s.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.SourceLang != "de-DE" || job.Options != "exclude_columns:\n  - sku\n" {
		t.Errorf("unexpected job %+v", job)
	}
}

func TestStore_MigratesJobsWithoutOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE jobs (
		id TEXT PRIMARY KEY,
		input_file TEXT NOT NULL,
		output_file TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		status TEXT DEFAULT 'running',
		translated INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	INSERT INTO jobs (id, input_file, output_file, source_lang) VALUES ('old', 'a.csv', 'b.csv', 'en-US');`)
	db.Close()
	if err != nil {
		t.Fatalf("seeding failed: %v", err)
	}

	s, err := New(path)
	if err != nil {
		t.Fatalf("New on an old database failed: %v", err)
	}
	defer s.Close()

	job, err := s.GetJob(context.Background(), "old")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Options != "" || job.InputFile != "a.csv" {
		t.Errorf("unexpected job %+v", job)
	}
}

func TestStore_Jobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateJob(ctx, "products.csv", "products_translated.csv", "en-US", "set_columns:\n  - tags\n")
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	job, err := s.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Status != JobRunning || job.OutputFile != "products_translated.csv" || job.SourceLang != "en-US" {
		t.Errorf("unexpected job %+v", job)
	}

	sink := s.JobSink(id)
	if err := sink.Persist(ctx, checkpoint.Snapshot{Stats: checkpoint.Stats{Translated: 5, Skipped: 2}}); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	job, _ = s.GetJob(ctx, id)
	if job.Status != JobRunning || job.Translated != 5 || job.Skipped != 2 {
		t.Errorf("unexpected job after checkpoint %+v", job)
	}

	if err := sink.Persist(ctx, checkpoint.Snapshot{Stats: checkpoint.Stats{Translated: 9, Failed: 1}, Final: true}); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	job, _ = s.GetJob(ctx, id)
	if job.Status != JobCompleted || job.Translated != 9 || job.Failed != 1 {
		t.Errorf("unexpected job after final snapshot %+v", job)
	}

	jobs, err := s.ListJobs(ctx)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != id {
		t.Errorf("unexpected jobs %+v", jobs)
	}
}

func TestStore_GetJob_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetJob(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown job")
	}
	if err := s.UpdateJob(context.Background(), "missing", JobCompleted, checkpoint.Stats{}); err == nil {
		t.Error("expected error updating unknown job")
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Hello  ", "Hello"},
		{"e\u0301", "\u00e9"}, // NFC composes
		{"\t\nHello\t\n", "Hello"},
		{"", ""},
	}

	for _, tt := range tests {
		result := normalizeText(tt.input)
		if result != tt.expected {
			t.Errorf("normalizeText(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
