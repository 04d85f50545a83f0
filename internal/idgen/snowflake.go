package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator produces time-ordered snowflake ids
type Generator struct {
	node *snowflake.Node
}

// NewGenerator creates a generator for a node number in [0, 1023]
func NewGenerator(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to init snowflake node: %w", err)
	}
	return &Generator{node: node}, nil
}

// Next returns the next id in base36
func (g *Generator) Next() string {
	return g.node.Generate().Base36()
}
