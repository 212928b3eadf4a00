package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const projectIDPrefix = "collection"

// NewProjectID returns a readable id such as "collection-48213-5521".
// Collisions are resolved by the repository retrying on unique violations.
func NewProjectID() (string, error) {
	a, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", err
	}
	b, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%05d-%04d", projectIDPrefix, 10000+a.Int64(), 1000+b.Int64()), nil
}
