package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"

	apperrors "showbot/errors"
)

//go:embed words/*
var wordsFolder embed.FS

// Blocklist carries the loaded pattern list plus metadata for logging.
type Blocklist struct {
	Words     []string
	Languages []string
}

// LoadBlocklist parses the embedded per-language dictionaries into a unique
// pattern list. Each words/<lang>.txt holds one pattern per line; blank
// lines are skipped.
func LoadBlocklist() (*Blocklist, error) {
	return loadBlocklist(wordsFolder, "words")
}

func loadBlocklist(fsys embed.FS, path string) (*Blocklist, error) {
	entries, err := fs.ReadDir(fsys, path)
	if err != nil {
		return nil, err
	}

	var languages []string
	unique := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fsys.ReadFile(path + "/" + entry.Name())
		if err != nil {
			return nil, err
		}

		// A scanner handles both \n and \r\n line endings.
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				unique[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(unique) == 0 {
		return nil, apperrors.ErrEmptyWords
	}

	words := make([]string, 0, len(unique))
	for w := range unique {
		words = append(words, w)
	}
	return &Blocklist{Words: words, Languages: languages}, nil
}
