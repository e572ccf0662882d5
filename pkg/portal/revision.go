package portal

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// revisionAlphabet defines the character set of generated revisions.
const revisionAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// revisionLength is the number of random characters in a revision.
const revisionLength = 12

// NewRevision returns a short random revision stamp.
func NewRevision() (string, error) {
	id, err := nanoid.Generate(revisionAlphabet, revisionLength)
	if err != nil {
		return "", fmt.Errorf("portal: revision: %w", err)
	}
	return id, nil
}
