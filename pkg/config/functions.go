package config

import (
	"github.com/hashicorp/go-cty-funcs/crypto"
	"github.com/hashicorp/go-cty-funcs/encoding"
	"github.com/hashicorp/go-cty-funcs/filesystem"
	"github.com/hashicorp/go-cty-funcs/uuid"
	"github.com/tsarna/go2cty2go"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GetFunctions returns the functions available to configuration
// expressions. file() and fileexists() resolve paths against baseDir.
func GetFunctions(baseDir string, logger *zap.Logger) map[string]function.Function {
	funcs := map[string]function.Function{
		// String functions
		"upper":     stdlib.UpperFunc,
		"lower":     stdlib.LowerFunc,
		"format":    stdlib.FormatFunc,
		"split":     stdlib.SplitFunc,
		"join":      stdlib.JoinFunc,
		"chomp":     stdlib.ChompFunc,
		"trimspace": stdlib.TrimSpaceFunc,
		"replace":   stdlib.ReplaceFunc,

		// Numeric functions
		"max": stdlib.MaxFunc,
		"min": stdlib.MinFunc,

		// Collection functions
		"coalesce": stdlib.CoalesceFunc,
		"concat":   stdlib.ConcatFunc,
		"length":   stdlib.LengthFunc,
		"lookup":   stdlib.LookupFunc,
		"merge":    stdlib.MergeFunc,

		// Encoding functions
		"jsondecode":   stdlib.JSONDecodeFunc,
		"jsonencode":   stdlib.JSONEncodeFunc,
		"base64decode": encoding.Base64DecodeFunc,
		"base64encode": encoding.Base64EncodeFunc,
		"urlencode":    encoding.URLEncodeFunc,

		// Type conversion functions
		"tostring": stdlib.MakeToFunc(cty.String),
		"tonumber": stdlib.MakeToFunc(cty.Number),
		"tobool":   stdlib.MakeToFunc(cty.Bool),

		// Crypto functions
		"sha256": crypto.Sha256Func,

		// Filesystem functions
		"file":       filesystem.MakeFileFunc(baseDir, false),
		"fileexists": filesystem.MakeFileExistsFunc(baseDir),
		"abspath":    filesystem.AbsPathFunc,
		"basename":   filesystem.BasenameFunc,
		"dirname":    filesystem.DirnameFunc,
		"pathexpand": filesystem.PathExpandFunc,

		"uuidv4": uuid.V4Func,
	}

	for name, fn := range getLogFunctions(logger) {
		funcs[name] = fn
	}

	return funcs
}

// getLogFunctions returns log_debug, log_info, log_warn and log_error. Each
// logs its message with the remaining arguments converted to plain Go values, and
// returns true.
func getLogFunctions(logger *zap.Logger) map[string]function.Function {
	if logger == nil {
		logger = zap.NewNop()
	}

	return map[string]function.Function{
		"log_debug": makeLogFunc(logger, zapcore.DebugLevel),
		"log_info":  makeLogFunc(logger, zapcore.InfoLevel),
		"log_warn":  makeLogFunc(logger, zapcore.WarnLevel),
		"log_error": makeLogFunc(logger, zapcore.ErrorLevel),
	}
}

func makeLogFunc(logger *zap.Logger, level zapcore.Level) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{
				Name: "message",
				Type: cty.String,
			},
		},
		VarParam: &function.Parameter{
			Name:      "fields",
			Type:      cty.DynamicPseudoType,
			AllowNull: true,
		},
		Type: function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			fields := make([]zap.Field, 0, len(args)-1)
			for _, arg := range args[1:] {
				fields = append(fields, valueField(arg))
			}

			logger.Log(level, args[0].AsString(), fields...)

			return cty.True, nil
		},
	})
}

func valueField(value cty.Value) zap.Field {
	if !value.IsWhollyKnown() {
		return zap.String("value", "(unknown)")
	}

	native, err := go2cty2go.CtyToAny(value)
	if err != nil {
		return zap.String("value", value.GoString())
	}
	return zap.Any("value", native)
}
