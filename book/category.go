package book

import (
	"bytes"
	"fmt"
)

/* Category is a closed set. Adding one means adding a constant here,
 * the compiler and Validate do the rest.
 */
type Category int

const (
	Adventure Category = iota + 1
	Classics
	Crime
	Fantasy
	Fiction
	NonFiction
)

// Categories lists every valid category in declaration order.
func Categories() []Category {
	return []Category{Adventure, Classics, Crime, Fantasy, Fiction, NonFiction}
}

func (c Category) String() string {
	switch c {
	case Adventure:
		return "ADVENTURE"
	case Classics:
		return "CLASSICS"
	case Crime:
		return "CRIME"
	case Fantasy:
		return "FANTASY"
	case Fiction:
		return "FICTION"
	case NonFiction:
		return "NON_FICTION"
	}
	return "UNKNOWN"
}

// NewCategory parses a category name. Unknown names give an invalid Category.
func NewCategory(s string) Category {
	for _, c := range Categories() {
		if c.String() == s {
			return c
		}
	}
	return 0
}

// Validate checks that c belongs to the enumeration.
func (c Category) Validate() error {
	if c < Adventure || c > NonFiction {
		return fmt.Errorf("invalid category: %d", c)
	}
	return nil
}

// MarshalJSON writes the category name.
func (c Category) MarshalJSON() ([]byte, error) {
	buffer := bytes.NewBufferString(`"`)
	buffer.WriteString(c.String())
	buffer.WriteString(`"`)
	return buffer.Bytes(), nil
}
