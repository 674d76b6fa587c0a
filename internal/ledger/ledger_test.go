package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cass-memory/playbook/internal/types"
)

func TestAppendAndReadOutcomes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outcomes.jsonl")

	rec := types.OutcomeRecord{
		SessionID:  "s-1",
		Outcome:    types.OutcomeSuccess,
		RulesUsed:  []string{"b-1"},
		Notes:      "worked\nfine",
		RecordedAt: time.Now().UTC(),
	}
	if err := AppendOutcome(path, rec); err != nil {
		t.Fatalf("AppendOutcome: %v", err)
	}

	res, err := ReadOutcomes(path, 0)
	if err != nil {
		t.Fatalf("ReadOutcomes: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(res.Records))
	}
	if res.Records[0].Notes != "worked fine" {
		t.Errorf("Notes = %q, want sanitized single-line", res.Records[0].Notes)
	}
}

func TestReadOutcomesSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outcomes.jsonl")
	content := `{"sessionId":"a","outcome":"success","recordedAt":"2024-01-01T00:00:00Z"}
not valid json
{"sessionId":"b","outcome":"failure","recordedAt":"2024-01-02T00:00:00Z"}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	res, err := ReadOutcomes(path, 0)
	if err != nil {
		t.Fatalf("ReadOutcomes: %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 valid records, got %d", len(res.Records))
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
}

func TestReadOutcomesRespectsLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outcomes.jsonl")
	for i := 0; i < 5; i++ {
		rec := types.OutcomeRecord{SessionID: "s", Outcome: types.OutcomeSuccess, RecordedAt: time.Now().UTC()}
		if err := AppendOutcome(path, rec); err != nil {
			t.Fatal(err)
		}
	}
	res, err := ReadOutcomes(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records with limit, got %d", len(res.Records))
	}
}

func TestAppendBlocked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blocked.log")
	e := BlockedEntry{Timestamp: time.Now().UTC(), BulletID: "b-1", Reason: "harmful\nrule", AntiPattern: "ap-1"}
	if err := AppendBlocked(path, e); err != nil {
		t.Fatalf("AppendBlocked: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty blocked log")
	}
}

func TestWriteAndListDiaryEntries(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteDiaryEntry(dir, types.DiaryEntry{SessionPath: "s.md", Timestamp: time.Now().UTC(), Agent: "agent"})
	if err != nil {
		t.Fatalf("WriteDiaryEntry: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected diary file to exist: %v", err)
	}

	entries, err := ListDiaryEntries(dir)
	if err != nil {
		t.Fatalf("ListDiaryEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 diary entry, got %d", len(entries))
	}
}

func TestChainEventAppendAndRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.jsonl")
	ev := ChainEvent{Timestamp: time.Now().UTC(), Operation: ChainOpDeprecate, BulletID: "b-1", Scope: types.ScopeGlobal}
	if err := AppendChainEvent(path, ev); err != nil {
		t.Fatalf("AppendChainEvent: %v", err)
	}
	res, err := ReadChain(path)
	if err != nil {
		t.Fatalf("ReadChain: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].BulletID != "b-1" {
		t.Fatalf("unexpected chain records: %+v", res.Records)
	}
}
