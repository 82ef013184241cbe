package ioformat

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/R-van-Bakel/Multi-Summaries/pkg/errors"
)

// ReadNameMap parses a line-delimited "<name> <id>" ASCII file
// (entity2ID.txt or rel2ID.txt) into an id-to-name lookup, the inverse
// of how the file itself is indexed. Used by the quotient extractor to
// emit human-readable entity names in the contains artifact.
func ReadNameMap(path string) (map[uint64]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.CodeInputNotFound, "name map file not found", err).WithLocation("quotient", path, -1)
		}
		return nil, apperrors.Wrap(apperrors.CodeIoError, "failed to open name map file", err).WithLocation("quotient", path, -1)
	}
	defer f.Close()

	out := make(map[uint64]string)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var line int64
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			continue
		}
		idx := strings.LastIndexByte(text, ' ')
		if idx < 0 {
			idx = strings.LastIndexByte(text, '\t')
		}
		if idx < 0 {
			return nil, apperrors.New(apperrors.CodeMalformedJson, "name map line missing id separator").WithLocation("quotient", path, line)
		}
		name := text[:idx]
		idStr := strings.TrimSpace(text[idx+1:])
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeMalformedJson, "name map id is not an integer", err).WithLocation("quotient", path, line)
		}
		out[id] = name
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIoError, "failed to scan name map file", err).WithLocation("quotient", path, line)
	}
	return out, nil
}
