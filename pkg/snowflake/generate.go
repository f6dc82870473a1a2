package snowflake

import (
	"errors"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node    *snowflake.Node
	once    sync.Once
	nodeErr error

	errInvalidMachineID  = errors.New("invalid snowflake machine id")
	errInvalidDataCenter = errors.New("invalid snowflake datacenter id")
	errNotInitialized    = errors.New("snowflake generator is not initialized")
)

// Init 节点号由 datacenterID 和 machineID 组合而成，二者都是 0~31
func Init(machineID, dataCenterID int64) error {
	if machineID < 0 || machineID > 31 {
		return errInvalidMachineID
	}
	if dataCenterID < 0 || dataCenterID > 31 {
		return errInvalidDataCenter
	}

	once.Do(func() {
		node, nodeErr = snowflake.NewNode((dataCenterID << 5) | machineID)
	})
	return nodeErr
}

// NextString 用作请求 ID，base58 更短
func NextString() (string, error) {
	if node == nil {
		return "", errNotInitialized
	}
	return node.Generate().Base58(), nil
}
