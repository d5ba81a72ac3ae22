package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/qepting91/saved-response/internal/domain"
)

// LoadReasons reads removal reasons from a CSV file with an
// "id,title,message" header. Rows without a title or message are skipped.
func LoadReasons(path string) ([]domain.RemovalReason, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadReasons(f)
}

func ReadReasons(src io.Reader) ([]domain.RemovalReason, error) {
	// Wrap in BOM stripper
	r := csv.NewReader(stripBOM(src))
	r.FieldsPerRecord = -1

	var reasons []domain.RemovalReason
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reasons csv: %w", err)
		}
		line++
		if line == 1 {
			continue // Skip header
		}

		// Validation (Fail-Soft)
		if len(record) < 3 {
			continue
		}
		title := strings.TrimSpace(record[1])
		message := strings.TrimSpace(record[2])
		if title == "" || message == "" {
			continue
		}

		id := strings.TrimSpace(record[0])
		if id == "" {
			id = fmt.Sprintf("reason-%d", line-1)
		}

		reasons = append(reasons, domain.RemovalReason{
			ID:      id,
			Title:   title,
			Message: unescapeNewlines(message),
		})
	}
	return reasons, nil
}

// Messages are markdown; CSV authors usually write paragraph breaks as "\n".
func unescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
