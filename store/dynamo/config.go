package dynamo

// MaxTransactItems is the DynamoDB limit on actions in one TransactWriteItems call.
const MaxTransactItems = 100

// Config holds configuration for the Store.
type Config struct {
	// ContainersTable is the name of the containers table.
	// Default: "orchard_containers"
	ContainersTable string

	// SubContainersTable is the name of the sub-containers table.
	// Default: "orchard_sub_containers"
	SubContainersTable string

	// ItemsTable is the name of the items table.
	// Default: "orchard_items"
	ItemsTable string

	// OwnerIndex is the GSI on the containers table keyed by owner_id.
	// Default: "owner_id-index"
	OwnerIndex string

	// ContainerIndex is the GSI on the sub-containers and items tables keyed
	// by container_id.
	// Default: "container_id-index"
	ContainerIndex string

	// MaxTransactItems caps the writes staged by one unit of work. Units of
	// work that stage more fail with store.ErrTransactionTooLarge.
	// Default: 100
	// Max: 100
	MaxTransactItems int
}

// DefaultConfig returns the default table layout.
func DefaultConfig() Config {
	return Config{
		ContainersTable:    "orchard_containers",
		SubContainersTable: "orchard_sub_containers",
		ItemsTable:         "orchard_items",
		OwnerIndex:         "owner_id-index",
		ContainerIndex:     "container_id-index",
		MaxTransactItems:   MaxTransactItems,
	}
}

// ConfigWithPrefix returns the default layout with every table name prefixed.
func ConfigWithPrefix(prefix string) Config {
	cfg := DefaultConfig()
	if prefix == "" {
		return cfg
	}
	cfg.ContainersTable = prefix + "-containers"
	cfg.SubContainersTable = prefix + "-sub-containers"
	cfg.ItemsTable = prefix + "-items"
	return cfg
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	def := DefaultConfig()
	if c.ContainersTable == "" {
		c.ContainersTable = def.ContainersTable
	}
	if c.SubContainersTable == "" {
		c.SubContainersTable = def.SubContainersTable
	}
	if c.ItemsTable == "" {
		c.ItemsTable = def.ItemsTable
	}
	if c.OwnerIndex == "" {
		c.OwnerIndex = def.OwnerIndex
	}
	if c.ContainerIndex == "" {
		c.ContainerIndex = def.ContainerIndex
	}
	if c.MaxTransactItems < 1 || c.MaxTransactItems > MaxTransactItems {
		c.MaxTransactItems = MaxTransactItems
	}
}
