// Package ledger implements C3: the append-only event records that back
// outcomes, blocked-bullet audit trail, diary entries, and the
// chain-of-custody trail over curator operations.
//
// The append-and-tolerantly-scan shape (temp-free append plus
// bufio.Scanner partial-line skipping) is adapted from the teacher's
// internal/storage/file.go appendJSONL/ListSessions. The supplemented
// chain-of-custody log follows the teacher's internal/pool/pool.go
// ChainEvent/recordEvent/GetChain.
package ledger

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cass-memory/playbook/internal/types"
)

// sanitize replaces carriage returns and newlines with spaces and trims
// surrounding whitespace, so a value cannot break a single-line JSONL
// record or a text log line (spec.md §3.4). Other control characters,
// tabs included, are kept.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func appendJSONL(path string, v any) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return f.Sync()
}

// ReadResult carries tolerant-scan output plus a count of skipped lines,
// so a corrupt outcomes line can be reported as a warning rather than a
// fatal error (spec.md §8 "Corrupt outcomes line").
type ReadResult[T any] struct {
	Records []T
	Skipped int
}

func scanJSONL[T any](path string, limit int) (ReadResult[T], error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return ReadResult[T]{}, nil
	}
	if err != nil {
		return ReadResult[T]{}, err
	}
	defer f.Close()

	var all []T
	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		all = append(all, rec)
	}
	if err := scanner.Err(); err != nil {
		return ReadResult[T]{Records: all, Skipped: skipped}, err
	}
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return ReadResult[T]{Records: all, Skipped: skipped}, nil
}

// AppendOutcome appends a sanitized outcome record to the outcomes log.
func AppendOutcome(path string, rec types.OutcomeRecord) error {
	rec.Notes = sanitize(rec.Notes)
	rec.Task = sanitize(rec.Task)
	return appendJSONL(path, rec)
}

// ReadOutcomes returns up to the last limit valid outcome records (limit<=0
// means all), tolerating and skipping malformed lines.
func ReadOutcomes(path string, limit int) (ReadResult[types.OutcomeRecord], error) {
	res, err := scanJSONL[types.OutcomeRecord](path, limit)
	if err != nil {
		return res, err
	}
	for i := range res.Records {
		res.Records[i].Notes = sanitize(res.Records[i].Notes)
		res.Records[i].Task = sanitize(res.Records[i].Task)
	}
	return res, nil
}

// BlockedEntry records one deprecation event for the blocked-log audit
// trail (spec.md §4.11 "Blocked log").
type BlockedEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	BulletID    string    `json:"bulletId"`
	Reason      string    `json:"reason"`
	AntiPattern string    `json:"antiPattern,omitempty"`
}

// AppendBlocked appends a line to the text blocked log.
func AppendBlocked(path string, e BlockedEntry) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	line := fmt.Sprintf("%s\t%s\t%s", e.Timestamp.UTC().Format(time.RFC3339), e.BulletID, sanitize(e.Reason))
	if e.AntiPattern != "" {
		line += "\t" + sanitize(e.AntiPattern)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return err
	}
	return f.Sync()
}

// WriteDiaryEntry writes one diary entry to its own file, named by its id
// so concurrent writers never collide (spec.md §8 "Diary directory").
func WriteDiaryEntry(dir string, entry types.DiaryEntry) (string, error) {
	if entry.ID == "" {
		id, err := newID()
		if err != nil {
			return "", err
		}
		entry.ID = id
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	path := filepath.Join(dir, entry.ID+".json")
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return path, nil
}

// ListDiaryEntries reads every diary entry file in dir, skipping
// unparsable ones.
func ListDiaryEntries(dir string) ([]types.DiaryEntry, error) {
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []types.DiaryEntry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			continue
		}
		var entry types.DiaryEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ChainOp is the closed set of operations recorded in the chain-of-custody
// audit trail (supplemented feature, see SPEC_FULL.md).
type ChainOp string

const (
	ChainOpAdd        ChainOp = "add"
	ChainOpUpdate     ChainOp = "update"
	ChainOpInvert     ChainOp = "invert"
	ChainOpDeprecate  ChainOp = "deprecate"
	ChainOpReplace    ChainOp = "replace"
	ChainOpUndeprecate ChainOp = "undeprecate"
	ChainOpFeedback   ChainOp = "feedback"
)

// ChainEvent is one line in chain.jsonl, recording which delta touched
// which bullet in which scope, for after-the-fact audit.
type ChainEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Operation ChainOp   `json:"operation"`
	BulletID  string    `json:"bulletId"`
	Scope     types.Scope `json:"scope,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// AppendChainEvent appends an event to the chain-of-custody log.
func AppendChainEvent(path string, e ChainEvent) error {
	return appendJSONL(path, e)
}

// ReadChain returns every chain event, tolerating malformed lines.
func ReadChain(path string) (ReadResult[ChainEvent], error) {
	return scanJSONL[ChainEvent](path, 0)
}

func newID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "diary-" + hex.EncodeToString(b), nil
}
