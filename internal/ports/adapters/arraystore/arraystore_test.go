package arraystore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/emedialab/sioviz/internal/types"
)

func writeStore(t *testing.T, doc string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trial.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFloatsAndInts(t *testing.T) {
	s := writeStore(t, `{
		"/cameras/a/toa_s": [1.5, 2.5, 3.5],
		"/cameras/a/frame_sequence_id": [10, 11, 12]
	}`)

	toas, err := s.Floats("/cameras/a/toa_s")
	if err != nil {
		t.Fatal(err)
	}
	if len(toas) != 3 || toas[1] != 2.5 {
		t.Fatalf("unexpected floats: %v", toas)
	}

	seq, err := s.Ints("/cameras/a/frame_sequence_id")
	if err != nil {
		t.Fatal(err)
	}
	if len(seq) != 3 || seq[2] != 12 {
		t.Fatalf("unexpected ints: %v", seq)
	}
}

func TestMissingPath(t *testing.T) {
	s := writeStore(t, `{}`)
	_, err := s.Floats("/glasses/ego/toa_s")
	if !errors.Is(err, types.ErrMissingData) {
		t.Fatalf("expected ErrMissingData, got %v", err)
	}
}

func TestMatrix(t *testing.T) {
	s := writeStore(t, `{"/mvn/pose": [[1, 2, 3], [4, 5, 6]]}`)
	m, err := s.Matrix("/mvn/pose")
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 || m[1][2] != 6 {
		t.Fatalf("unexpected matrix: %v", m)
	}
}

func TestMatrix_RaggedRows(t *testing.T) {
	s := writeStore(t, `{"/mvn/pose": [[1, 2], [3]]}`)
	if _, err := s.Matrix("/mvn/pose"); err == nil {
		t.Fatal("expected error for ragged rows")
	}
}
