package config

import (
	"github.com/hashicorp/hcl/v2"
)

var blockSchema = []hcl.BlockHeaderSchema{
	{
		Type:       "gateway",
		LabelNames: []string{},
	},
	{
		Type:       "roulette",
		LabelNames: []string{"name"},
	},
	{
		Type:       "status",
		LabelNames: []string{"name"},
	},
	{
		Type:       "store",
		LabelNames: []string{"name"},
	},
}

var configSchema = &hcl.BodySchema{
	Blocks: blockSchema,
}
