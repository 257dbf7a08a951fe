// Package index is a filesystem implementation of the structured index
// store. Each document owns one directory holding three co-located
// artifacts:
//
//	<root>/<doc-id>/meta.json                     metadata record
//	<root>/<doc-id>/sections.jsonl                one section per line
//	<root>/<doc-id>/embeddings__<model>.vec       labelled float32 matrix
//
// The matrix file stores each row alongside its section_id label, so
// section/embedding alignment is verified by equality at load time
// instead of trusted by position. Writes replace the whole document
// directory via a temp dir and rename.
package index

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/agora-labs/agora-cli/internal/core/domain"
	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// vecMagic identifies the labelled embedding matrix format.
const vecMagic = "AGV1"

var unsafeModelChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Store persists structured indexes under a filesystem root.
type Store struct {
	root string
}

// NewStore creates the index store, ensuring the root directory exists.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("creating index root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the filesystem root of the store.
func (s *Store) Root() string {
	return s.root
}

// docDir returns the directory for one document.
func (s *Store) docDir(docID string) string {
	return filepath.Join(s.root, docID)
}

// vecFileName builds the per-model matrix file name. The model name is
// part of the key so switching models never mixes vector spaces.
func vecFileName(model string) string {
	return "embeddings__" + unsafeModelChars.ReplaceAllString(model, "_") + ".vec"
}

// Write atomically replaces the document's artifacts.
func (s *Store) Write(ctx context.Context, meta domain.IndexMeta, sections []domain.Section, embeddings [][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(sections) != len(embeddings) {
		return fmt.Errorf("%w: %d sections vs %d rows", domain.ErrIndexMismatch, len(sections), len(embeddings))
	}

	tmp, err := os.MkdirTemp(s.root, ".tmp-"+meta.DocID+"-")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := writeMeta(filepath.Join(tmp, "meta.json"), meta); err != nil {
		return err
	}
	if err := writeSections(filepath.Join(tmp, "sections.jsonl"), sections); err != nil {
		return err
	}
	if err := writeMatrix(filepath.Join(tmp, vecFileName(meta.EmbeddingModel)), sections, embeddings); err != nil {
		return err
	}

	final := s.docDir(meta.DocID)
	if err := os.RemoveAll(final); err != nil {
		return fmt.Errorf("removing old index: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("installing index: %w", err)
	}
	return nil
}

// Load returns the section list and embedding matrix for one document
// and model, validating counts and row labels.
func (s *Store) Load(ctx context.Context, docID, model string) ([]domain.Section, [][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sections, err := readSections(filepath.Join(s.docDir(docID), "sections.jsonl"))
	if err != nil {
		return nil, nil, err
	}

	labels, matrix, err := readMatrix(filepath.Join(s.docDir(docID), vecFileName(model)))
	if err != nil {
		return nil, nil, err
	}

	if len(matrix) != len(sections) {
		return nil, nil, fmt.Errorf("%w: %d sections vs %d rows", domain.ErrIndexMismatch, len(sections), len(matrix))
	}
	for i := range sections {
		if labels[i] != sections[i].SectionID {
			return nil, nil, fmt.Errorf("%w: row %d labelled %q, section is %q",
				domain.ErrIndexMismatch, i, labels[i], sections[i].SectionID)
		}
	}

	return sections, matrix, nil
}

// LoadMeta returns the metadata record for one document.
func (s *Store) LoadMeta(ctx context.Context, docID string) (*domain.IndexMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.docDir(docID), "meta.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	var meta domain.IndexMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decoding meta: %w", err)
	}
	return &meta, nil
}

// List returns all document ids with persisted artifacts, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading index root: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes all artifacts for a document.
func (s *Store) Delete(ctx context.Context, docID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.RemoveAll(s.docDir(docID))
}

func writeMeta(path string, meta domain.IndexMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding meta: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing meta: %w", err)
	}
	return nil
}

func writeSections(path string, sections []domain.Section) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating sections file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range sections {
		if err := enc.Encode(&sections[i]); err != nil {
			return fmt.Errorf("encoding section %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing sections file: %w", err)
	}
	return f.Close()
}

func readSections(path string) ([]domain.Section, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("opening sections file: %w", err)
	}
	defer f.Close()

	var sections []domain.Section
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var sec domain.Section
		if err := json.Unmarshal([]byte(line), &sec); err != nil {
			return nil, fmt.Errorf("decoding section: %w", err)
		}
		sections = append(sections, sec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading sections file: %w", err)
	}
	return sections, nil
}

// writeMatrix stores the labelled float32 matrix:
//
//	magic "AGV1" | uint32 rows | uint32 dims
//	per row: uint16 label length | label bytes | dims float32 values
//
// All integers and floats are little-endian.
func writeMatrix(path string, sections []domain.Section, embeddings [][]float32) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating matrix file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(vecMagic); err != nil {
		return fmt.Errorf("writing magic: %w", err)
	}

	dims := 0
	if len(embeddings) > 0 {
		dims = len(embeddings[0])
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(embeddings))); err != nil {
		return fmt.Errorf("writing row count: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dims)); err != nil {
		return fmt.Errorf("writing dims: %w", err)
	}

	for i, row := range embeddings {
		if len(row) != dims {
			return fmt.Errorf("row %d has %d dims, want %d", i, len(row), dims)
		}
		label := sections[i].SectionID
		if err := binary.Write(w, binary.LittleEndian, uint16(len(label))); err != nil {
			return fmt.Errorf("writing label length: %w", err)
		}
		if _, err := w.WriteString(label); err != nil {
			return fmt.Errorf("writing label: %w", err)
		}
		for _, v := range row {
			if err := binary.Write(w, binary.LittleEndian, math.Float32bits(v)); err != nil {
				return fmt.Errorf("writing row %d: %w", i, err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing matrix file: %w", err)
	}
	return f.Close()
}

func readMatrix(path string) ([]string, [][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("opening matrix file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic := make([]byte, len(vecMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, nil, fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != vecMagic {
		return nil, nil, fmt.Errorf("%w: bad matrix magic %q", domain.ErrIndexMismatch, magic)
	}

	var rows, dims uint32
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return nil, nil, fmt.Errorf("reading row count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return nil, nil, fmt.Errorf("reading dims: %w", err)
	}

	labels := make([]string, 0, rows)
	matrix := make([][]float32, 0, rows)
	for i := uint32(0); i < rows; i++ {
		var labelLen uint16
		if err := binary.Read(r, binary.LittleEndian, &labelLen); err != nil {
			return nil, nil, fmt.Errorf("reading label length: %w", err)
		}
		label := make([]byte, labelLen)
		if _, err := io.ReadFull(r, label); err != nil {
			return nil, nil, fmt.Errorf("reading label: %w", err)
		}

		row := make([]float32, dims)
		for j := range row {
			var bits uint32
			if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
				return nil, nil, fmt.Errorf("reading row %d: %w", i, err)
			}
			row[j] = math.Float32frombits(bits)
		}

		labels = append(labels, string(label))
		matrix = append(matrix, row)
	}

	return labels, matrix, nil
}

