package builtins

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/host"

	"avon/internal/errs"
	"avon/internal/value"
)

// miscBuiltins covers the remaining ambient families the design calls out
// by name: identifiers/hashing, environment access, file I/O, the import
// family, and the debug hooks. uuid rides on google/uuid, the same library
// the Amr-9-Sayl and mxk-go-terraform examples both carry in their go.mod,
// confirming it as a pack-wide idiom rather than a one-off choice.
func miscBuiltins() map[string]value.Value {
	return map[string]value.Value{
		"uuid":          fn("uuid", 0, uuidBuiltin),
		"hash_md5":      fn("hash_md5", 1, hashMD5Builtin),
		"hash_sha256":   fn("hash_sha256", 1, hashSHA256Builtin),
		"base64_encode": fn("base64_encode", 1, base64EncodeBuiltin),
		"base64_decode": fn("base64_decode", 1, base64DecodeBuiltin),

		"env_var":    fn("env_var", 1, envVarBuiltin),
		"env_var_or": fn("env_var_or", 2, envVarOrBuiltin),
		"env_vars":   fn("env_vars", 0, envVarsBuiltin),
		"os":         fn("os", 0, osInfoBuiltin),

		"read_file":   fn("read_file", 1, readFileBuiltin),
		"file_exists": fn("file_exists", 1, fileExistsBuiltin),

		"import":     fn("import", 1, importBuiltin),
		"import_git": fn("import_git", 3, importGitBuiltin),

		"trace": fn("trace", 2, traceBuiltin),
		"debug": fn("debug", 1, debugBuiltin),
		"spy":   fn("spy", 1, spyBuiltin),
		"tap":   fn("tap", 2, tapBuiltin),
	}
}

func uuidBuiltin(_ value.Caller, _ []value.Value) (value.Value, error) {
	return value.Str(uuid.NewString()), nil
}

func hashMD5Builtin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	sum := md5.Sum([]byte(args[0].Str))
	return value.Str(hex.EncodeToString(sum[:])), nil
}

func hashSHA256Builtin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	sum := sha256.Sum256([]byte(args[0].Str))
	return value.Str(hex.EncodeToString(sum[:])), nil
}

func base64EncodeBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	return value.Str(base64.StdEncoding.EncodeToString([]byte(args[0].Str))), nil
}

func base64DecodeBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	b, err := base64.StdEncoding.DecodeString(args[0].Str)
	if err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "base64_decode: %v", err)
	}
	return value.Str(string(b)), nil
}

func envVarBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	v, ok := os.LookupEnv(args[0].Str)
	if !ok {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrMissingKey, "env_var: %q is not set", args[0].Str)
	}
	return value.Str(v), nil
}

func envVarOrBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	if v, ok := os.LookupEnv(args[0].Str); ok {
		return value.Str(v), nil
	}
	return args[1], nil
}

func envVarsBuiltin(_ value.Caller, _ []value.Value) (value.Value, error) {
	d := value.NewDict()
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		d = d.With(k, value.Str(v))
	}
	return value.Dict(d), nil
}

// osInfoBuiltin exposes host fields beyond what runtime.GOOS/os.Hostname
// alone give, backed by gopsutil's cross-platform host introspection rather
// than hand-rolled /proc or syscall parsing.
func osInfoBuiltin(_ value.Caller, _ []value.Value) (value.Value, error) {
	info, err := host.Info()
	if err != nil {
		return value.Value{}, errs.New(errs.KindIO, errs.Span{}, errs.ErrHostQueryFailed, "%v", err)
	}
	d := value.NewDict()
	d = d.With("platform", value.Str(info.Platform))
	d = d.With("arch", value.Str(info.KernelArch))
	d = d.With("hostname", value.Str(info.Hostname))
	d = d.With("uptime", value.Int(int64(info.Uptime)))
	return value.Dict(d), nil
}

func readFileBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	path := args[0].Str
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.WorkDir(), path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Value{}, errs.New(errs.KindIO, errs.Span{}, errs.ErrFileNotFound, "%s: %v", path, err)
	}
	return value.Str(string(data)), nil
}

func fileExistsBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	path := args[0].Str
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.WorkDir(), path)
	}
	_, err := os.Stat(path)
	return value.Bool(err == nil), nil
}

func importBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	return c.Import(args[0].Str)
}

func importGitBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString || args[1].Kind != value.KindString || args[2].Kind != value.KindString {
		return value.Value{}, value.TypeError("string, string, string", args[0])
	}
	return c.ImportGit(args[0].Str, args[1].Str, args[2].Str)
}

func debugBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	fmt.Fprintln(os.Stderr, value.Inspect(args[0]))
	return args[0], nil
}

// traceBuiltin prints a caller-supplied label ahead of the value, for
// pinpointing which call site a debug print came from in a larger pipeline.
func traceBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", args[0].Str, value.Inspect(args[1]))
	return args[1], nil
}

func spyBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	fmt.Fprintln(os.Stderr, "spy:", value.Inspect(args[0]))
	return args[0], nil
}

// tapBuiltin runs fn against v purely for its side effect (logging,
// assertions, metrics) and always returns v unchanged, letting it sit
// inline in a pipe chain without altering the value flowing through it.
func tapBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	if _, err := c.Invoke(args[1], []value.Value{args[0]}); err != nil {
		return value.Value{}, err
	}
	return args[0], nil
}
