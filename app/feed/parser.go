package feed

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses feed bytes as RSS or Atom. A parse error aborts processing for
// the target; the caller is responsible for logging a body snippet.
func (p *Parser) Run(data []byte) (*gofeed.Feed, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return parsed, nil
}

// Metadata summarizes the channel-level fields of a parsed feed.
func (p *Parser) Metadata(parsed *gofeed.Feed) Metadata {
	return Metadata{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
	}
}

// ExtractItems converts parsed entries into notification candidates,
// preserving feed order. Entries missing a title or link are skipped, as are
// entries whose link cannot be normalized. Never fails; best-effort
// filtering, not a correctness-critical path.
func (p *Parser) ExtractItems(parsed *gofeed.Feed) []Item {
	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil || entry.Title == "" || entry.Link == "" {
			continue
		}

		linkHash, err := LinkHash(entry.Link)
		if err != nil {
			slog.Debug("Skipping item with unparseable link", "link", entry.Link, "error", err)
			continue
		}

		items = append(items, Item{
			GUID:     entry.GUID,
			Title:    entry.Title,
			Link:     entry.Link,
			LinkHash: linkHash,
		})
	}
	return items
}
