// Package configkeys names the dotted keys memo reads from configuration files.
package configkeys

const (
	delimiter = "."

	ConfigPrefix = "memo"

	ConfigName            = ConfigPrefix + delimiter + "name"
	ConfigPolicy          = ConfigPrefix + delimiter + "policy"
	ConfigCapacity        = ConfigPrefix + delimiter + "capacity"
	ConfigTTL             = ConfigPrefix + delimiter + "ttl"
	ConfigCleanupInterval = ConfigPrefix + delimiter + "cleanup_interval"
	ConfigShards          = ConfigPrefix + delimiter + "shards"
	ConfigVerify          = ConfigPrefix + delimiter + "verify"

	ConfigWarmPrefix     = ConfigPrefix + delimiter + "warm"
	ConfigWarmNumWorkers = ConfigWarmPrefix + delimiter + "num_workers"
	ConfigWarmBufferSize = ConfigWarmPrefix + delimiter + "buffer_size"

	ConfigLogPrefix = ConfigPrefix + delimiter + "log"
	ConfigLogLevel  = ConfigLogPrefix + delimiter + "level"
)
