package config

import (
	"context"
	"fmt"
	"reflect"

	"github.com/gweinbach/roulette/pkg/store"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/zap"
)

// DefaultStoreName is the store used by games that do not name one. An
// in-memory store is created under this name unless a block defines it.
const DefaultStoreName = "default"

type StoreDefinition struct {
	Name     string    `hcl:",label"`
	Type     *string   `hcl:"type,optional"`
	Path     *string   `hcl:"path,optional"`
	Addr     *string   `hcl:"addr,optional"`
	Password *string   `hcl:"password,optional"`
	DB       *int      `hcl:"db,optional"`
	Prefix   *string   `hcl:"prefix,optional"`
	DefRange hcl.Range `hcl:",def_range"`
}

// StoreCapsuleType is a cty capsule type for wrapping IntStore instances
var StoreCapsuleType = cty.CapsuleWithOps("store", reflect.TypeOf((*any)(nil)).Elem(), &cty.CapsuleOps{
	GoString: func(val interface{}) string {
		return fmt.Sprintf("store(%p)", val)
	},
	TypeGoString: func(_ reflect.Type) string {
		return "store"
	},
})

func NewStoreCapsule(s store.IntStore) cty.Value {
	return cty.CapsuleVal(StoreCapsuleType, s)
}

func GetStoreFromCapsule(val cty.Value) (store.IntStore, error) {
	if val.Type() != StoreCapsuleType {
		return nil, fmt.Errorf("expected store capsule, got %s", val.Type().FriendlyName())
	}

	encapsulated := val.EncapsulatedValue()
	s, ok := encapsulated.(store.IntStore)
	if !ok {
		return nil, fmt.Errorf("encapsulated value is not a store, got %T", encapsulated)
	}
	return s, nil
}

// GetStoreFromExpression evaluates a store reference. A missing expression
// selects the default store.
func GetStoreFromExpression(config *Config, storeExpr hcl.Expression, subject *hcl.Range) (store.IntStore, hcl.Diagnostics) {
	if !IsExpressionProvided(storeExpr) {
		return defaultStore(config, subject)
	}

	storeCapsule, diags := storeExpr.Value(config.evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}

	if storeCapsule.IsNull() {
		return defaultStore(config, subject)
	}

	s, err := GetStoreFromCapsule(storeCapsule)
	if err != nil {
		return nil, hcl.Diagnostics{
			&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Failed to get store from expression",
				Detail:   err.Error(),
				Subject:  storeExpr.Range().Ptr(),
			},
		}
	}

	return s, nil
}

func defaultStore(config *Config, subject *hcl.Range) (store.IntStore, hcl.Diagnostics) {
	if s, ok := config.Stores[DefaultStoreName]; ok {
		return s, nil
	}
	return nil, hcl.Diagnostics{
		&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Default store not found",
			Detail:   fmt.Sprintf("No store is set, and store %q has not been opened", DefaultStoreName),
			Subject:  subject,
		},
	}
}

type StoreBlockHandler struct {
	BlockHandlerBase

	defaultDefined bool
}

func NewStoreBlockHandler() *StoreBlockHandler {
	return &StoreBlockHandler{}
}

func (h *StoreBlockHandler) GetBlockDependencyId(block *hcl.Block) (string, hcl.Diagnostics) {
	return "store." + block.Labels[0], nil
}

func (h *StoreBlockHandler) Preprocess(block *hcl.Block) hcl.Diagnostics {
	if block.Labels[0] == DefaultStoreName {
		h.defaultDefined = true
	}

	return nil
}

func (h *StoreBlockHandler) FinishPreprocessing(config *Config) hcl.Diagnostics {
	config.StoreCapsuleType = StoreCapsuleType
	config.CtyStoreMap = make(map[string]cty.Value)

	if !h.defaultDefined {
		storeDef := StoreDefinition{
			Name: DefaultStoreName,
		}

		return h.BuildStore(config, &storeDef, &hcl.Range{})
	}

	return nil
}

func (h *StoreBlockHandler) Process(config *Config, block *hcl.Block) hcl.Diagnostics {
	storeDef := StoreDefinition{}
	diags := gohcl.DecodeBody(block.Body, config.evalCtx, &storeDef)
	if diags.HasErrors() {
		return diags
	}

	// DecodeBody does not fill labels
	storeDef.Name = block.Labels[0]

	return diags.Extend(h.BuildStore(config, &storeDef, &storeDef.DefRange))
}

func (h *StoreBlockHandler) BuildStore(config *Config, storeDef *StoreDefinition, defRange *hcl.Range) hcl.Diagnostics {
	opts := store.Options{
		Type:     stringOr(storeDef.Type, store.TypeMemory),
		Path:     stringOr(storeDef.Path, ""),
		Addr:     stringOr(storeDef.Addr, ""),
		Password: stringOr(storeDef.Password, ""),
		Prefix:   stringOr(storeDef.Prefix, ""),
	}
	if storeDef.DB != nil {
		opts.DB = *storeDef.DB
	}

	logger := config.Logger.With(zap.String("store", storeDef.Name))

	s, err := store.Open(context.Background(), opts, logger)
	if err != nil {
		return hcl.Diagnostics{
			&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Failed to open store",
				Detail:   err.Error(),
				Subject:  defRange,
			},
		}
	}

	config.Stores[storeDef.Name] = s
	config.CtyStoreMap[storeDef.Name] = NewStoreCapsule(s)

	// Object attributes are fixed, so the object is rebuilt for each store
	config.Constants["store"] = cty.ObjectVal(config.CtyStoreMap)

	logger.Debug("Store opened", zap.String("type", opts.Type))

	return nil
}

func stringOr(value *string, def string) string {
	if value == nil {
		return def
	}
	return *value
}
