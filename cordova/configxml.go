package cordova

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	CONFIG_XML          = "config.xml"
	DEFAULT_CONTENT_SRC = "index.html"
)

var ErrConfigXMLNotFound = errors.New("config.xml not found")

// contentSrcRegex captures the src value in either quote style.
var contentSrcRegex = regexp.MustCompile(`<content\b[^>]*?\ssrc\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// SetContentSrc points the <content src> of the project's config.xml at src.
// The rest of the file is left byte for byte as it was.
func SetContentSrc(dir, src string) error {
	path := filepath.Join(dir, CONFIG_XML)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w in %s", ErrConfigXMLNotFound, dir)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	updated, err := replaceContentSrc(string(data), src)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", path, err)
	}

	if updated == string(data) {
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ResetContentSrc restores the bundled index.html. A project without config.xml is left alone.
func ResetContentSrc(dir string) error {
	err := SetContentSrc(dir, DEFAULT_CONTENT_SRC)
	if errors.Is(err, ErrConfigXMLNotFound) {
		return nil
	}
	return err
}

func replaceContentSrc(doc, src string) (string, error) {
	escaped := html.EscapeString(src)

	if loc := contentSrcRegex.FindStringSubmatchIndex(doc); loc != nil {
		start, end := loc[2], loc[3]
		if start < 0 {
			start, end = loc[4], loc[5]
		}
		return doc[:start] + escaped + doc[end:], nil
	}

	closing := strings.LastIndex(doc, "</widget>")
	if closing == -1 {
		return "", fmt.Errorf("no <widget> element")
	}

	return doc[:closing] + fmt.Sprintf("    <content src=\"%s\" />\n", escaped) + doc[closing:], nil
}
