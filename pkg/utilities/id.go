package utilities

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string. The leading four bytes
// carry the creation second, the remaining sixteen are random.
func NewKSUID() string {
	return ksuid.New().String()
}

// SnowflakeNodeFromEnv reads the node number from SNOWFLAKE_NODE, defaulting to 1.
func SnowflakeNodeFromEnv() int64 {
	nodeEnv := os.Getenv("SNOWFLAKE_NODE")
	if nodeEnv == "" {
		return 1
	}
	nodeID, err := strconv.ParseInt(nodeEnv, 10, 64)
	if err != nil {
		return 1
	}
	return nodeID
}

// IDSource hands out snowflake ids from a single node. If the node cannot be
// initialized it falls back to KSUID strings so an id is always returned.
type IDSource struct {
	node *snowflake.Node
}

// NewIDSource builds an IDSource for the given snowflake node number.
func NewIDSource(nodeID int64) *IDSource {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return &IDSource{}
	}
	return &IDSource{node: node}
}

// Next returns the next id as a string.
func (s *IDSource) Next() string {
	if s == nil || s.node == nil {
		return NewKSUID()
	}
	return s.node.Generate().String()
}
