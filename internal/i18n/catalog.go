package i18n

import (
	"github.com/vcaesar/cedar"
)

// Catalog holds the messages of one locale. Keys live in a double-array trie
// whose values index into messages.
type Catalog struct {
	trie     *cedar.Cedar
	messages []string
}

func NewCatalog() *Catalog {
	return &Catalog{trie: cedar.New()}
}

// Add stores a message. The first definition of a key wins.
func (c *Catalog) Add(key, message string) {
	k := []byte(key)
	if _, err := c.trie.Get(k); err == nil {
		return
	}
	if err := c.trie.Insert(k, len(c.messages)); err != nil {
		return
	}
	c.messages = append(c.messages, message)
}

// Lookup returns the message stored for key.
func (c *Catalog) Lookup(key string) (string, bool) {
	if c == nil || key == "" {
		return "", false
	}
	id, err := c.trie.Get([]byte(key))
	if err != nil || id < 0 || id >= len(c.messages) {
		return "", false
	}
	return c.messages[id], true
}

func (c *Catalog) Len() int {
	return len(c.messages)
}
