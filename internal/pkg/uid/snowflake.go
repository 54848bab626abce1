package uid

import (
	"crypto/rand"
	"math/big"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-sortable int64 identifiers.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator with a random node id.
//
// A random node id is good enough for a small fleet; collisions require two
// instances to share both the node id and the same millisecond sequence.
func NewSnowflake() (*Snowflake, error) {
	max := big.NewInt(1 << snowflake.NodeBits)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(n.Int64())
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new unique int64 identifier.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
