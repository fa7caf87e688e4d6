package rules

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type directoriesFile struct {
	XMLName     xml.Name       `xml:"directories"`
	Directories []directoryXML `xml:"directory"`
}

type directoryXML struct {
	SourcePath  string `xml:"source-path"`
	FilePattern string `xml:"file-pattern"`
	TargetPath  string `xml:"target-path"`
	Action      string `xml:"action"`
}

// Load reads the directories file at path.
func Load(path string) ([]*Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open directories file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes a <directories> document. Rule order is preserved.
func Parse(r io.Reader) ([]*Rule, error) {
	var doc directoriesFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode xml: %v", ErrInvalidRule, err)
	}

	if len(doc.Directories) == 0 {
		return nil, ErrNoRules
	}

	out := make([]*Rule, 0, len(doc.Directories))
	for i, d := range doc.Directories {
		source, err := absPath(d.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("directory #%d: %w", i+1, err)
		}
		target, err := absPath(d.TargetPath)
		if err != nil {
			return nil, fmt.Errorf("directory #%d: %w", i+1, err)
		}

		rule, err := New(source, d.FilePattern, target, d.Action)
		if err != nil {
			return nil, fmt.Errorf("directory #%d: %w", i+1, err)
		}
		out = append(out, rule)
	}

	return out, nil
}

func absPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return abs, nil
}
