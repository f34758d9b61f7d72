// Package pendingqueue stores records that failed to persist, one append-only
// partition file per record kind.
//
// A partition is newline delimited. The sink appends one record object per
// failure, a rewrite after reconciliation leaves a single line holding a json
// array of the records that are still failing. Load accepts both shapes.
package pendingqueue

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"streamstats-backend/internal/records"
	"streamstats-backend/lib/fsutil"

	"github.com/tidwall/gjson"
)

const DefaultDir = "fails_storage"

const filePerm = 0644

var partitionFiles = map[records.Kind]string{
	records.KindStreamer: "streamers.txt",
	records.KindGame:     "games.txt",
}

// Queue is a directory of partitions. It assumes a single writer.
type Queue struct {
	dir string
}

func Open(dir string) *Queue {
	if dir == "" {
		dir = DefaultDir
	}
	return &Queue{dir: dir}
}

func (q *Queue) Dir() string {
	return q.dir
}

// Path returns the partition file for kind.
func (q *Queue) Path(kind records.Kind) (string, error) {
	name, ok := partitionFiles[kind]
	if !ok {
		return "", fmt.Errorf("%w '%s'", records.ErrUnknownKind, kind)
	}
	return filepath.Join(q.dir, name), nil
}

// Append adds one record to the end of its kind's partition.
func (q *Queue) Append(rec records.Record) error {
	path, err := q.Path(rec.Kind)
	if err != nil {
		return err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	err = fsutil.AppendLine(path, line, filePerm)
	if err != nil {
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return nil
}

// Ensure creates an empty partition for kind if none exists.
func (q *Queue) Ensure(kind records.Kind) error {
	path, err := q.Path(kind)
	if err != nil {
		return err
	}
	return fsutil.Touch(path, filePerm)
}

// Size returns the partition size in bytes, a missing partition has size 0.
func (q *Queue) Size(kind records.Kind) (int64, error) {
	path, err := q.Path(kind)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Load reads every record in the partition in file order.
func (q *Queue) Load(kind records.Kind) ([]records.Record, error) {
	path, err := q.Path(kind)
	if err != nil {
		return nil, err
	}
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	out, err := decodeLines(contents)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i, rec := range out {
		if rec.Kind != kind {
			return nil, fmt.Errorf(
				"decode %s: entry %d has kind '%s'",
				path, i, rec.Kind,
			)
		}
	}
	return out, nil
}

// Replace overwrites the partition with recs. An empty recs truncates it.
func (q *Queue) Replace(kind records.Kind, recs []records.Record) error {
	path, err := q.Path(kind)
	if err != nil {
		return err
	}

	var data []byte
	if len(recs) > 0 {
		line, err := json.Marshal(recs)
		if err != nil {
			return fmt.Errorf("encode records: %w", err)
		}
		data = append(line, '\n')
	}

	err = fsutil.AtomicWriteFile(path, data, filePerm)
	if err != nil {
		return fmt.Errorf("rewrite %s: %w", path, err)
	}
	return nil
}

func decodeLines(contents []byte) ([]records.Record, error) {
	var out []records.Record

	scanner := bufio.NewScanner(bytes.NewReader(contents))
	scanner.Buffer(make([]byte, 0, 64*1024), len(contents)+1)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return nil, fmt.Errorf("line %d: invalid json", lineNo)
		}

		parsed := gjson.ParseBytes(line)
		switch {
		case parsed.IsArray():
			var batch []records.Record
			err := json.Unmarshal(line, &batch)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			out = append(out, batch...)
		case parsed.IsObject():
			var rec records.Record
			err := json.Unmarshal(line, &rec)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			out = append(out, rec)
		default:
			return nil, fmt.Errorf("line %d: expected a record or a list of records", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
