package builtin

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidExpression = errors.New("invalid function expression")
	ErrUnknownFunction   = errors.New("unknown function")
	ErrInvalidArgument   = errors.New("invalid function argument")
)

type Func func(args []string) (string, error)

type Registry struct {
	funcs map[string]Func
	now   func() time.Time
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
		now:   time.Now,
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["now"] = r.funcNow
	r.funcs["date"] = r.funcDate
	r.funcs["timestamp"] = r.funcTimestamp
	r.funcs["timestampMs"] = r.funcTimestampMs
	r.funcs["uuid"] = funcUUID
	r.funcs["random"] = funcRandom
	r.funcs["randomString"] = funcRandomString
	r.funcs["randomEmail"] = funcRandomEmail
	r.funcs["base64"] = funcBase64
	r.funcs["base64Decode"] = funcBase64Decode
	r.funcs["md5"] = funcMD5
	r.funcs["sha256"] = funcSHA256
	r.funcs["urlEncode"] = funcURLEncode
	r.funcs["urlDecode"] = funcURLDecode
	r.funcs["env"] = funcEnv
}

func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Names returns the registered function names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// Call evaluates an expression such as randomString(12).
func (r *Registry) Call(expr string) (string, error) {
	matches := funcCallPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if matches == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidExpression, expr)
	}

	name := matches[1]
	fn, ok := r.funcs[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}

	var args []string
	if argsStr := matches[2]; argsStr != "" {
		args = parseArgs(argsStr)
	}

	value, err := fn(args)
	if err != nil {
		return "", fmt.Errorf("%s(): %w", name, err)
	}
	return value, nil
}

func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !inQuote && (ch == '"' || ch == '\'') {
			inQuote = true
			quoteChar = ch
		} else if inQuote && ch == quoteChar {
			inQuote = false
			quoteChar = 0
		} else if !inQuote && ch == ',' {
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		} else {
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}

	return args
}

func intArg(args []string, i int, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidArgument, args[i])
	}
	return v, nil
}

func firstArg(args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("%w: missing argument", ErrInvalidArgument)
	}
	return args[0], nil
}

func (r *Registry) funcNow(_ []string) (string, error) {
	return r.now().UTC().Format(time.RFC3339), nil
}

func (r *Registry) funcDate(args []string) (string, error) {
	layout := "2006-01-02"
	if len(args) >= 1 {
		layout = args[0]
	}
	return r.now().UTC().Format(layout), nil
}

func (r *Registry) funcTimestamp(_ []string) (string, error) {
	return strconv.FormatInt(r.now().Unix(), 10), nil
}

func (r *Registry) funcTimestampMs(_ []string) (string, error) {
	return strconv.FormatInt(r.now().UnixMilli(), 10), nil
}

func funcUUID(_ []string) (string, error) {
	return uuid.NewString(), nil
}

func funcRandom(args []string) (string, error) {
	min, err := intArg(args, 0, 0)
	if err != nil {
		return "", err
	}
	max, err := intArg(args, 1, 100)
	if err != nil {
		return "", err
	}
	if max < min {
		return "", fmt.Errorf("%w: max %d is below min %d", ErrInvalidArgument, max, min)
	}
	return strconv.Itoa(rand.IntN(max-min+1) + min), nil
}

func funcRandomString(args []string) (string, error) {
	length, err := intArg(args, 0, 16)
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", fmt.Errorf("%w: negative length %d", ErrInvalidArgument, length)
	}
	return randomString(length, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"), nil
}

func funcRandomEmail(_ []string) (string, error) {
	user := randomString(8, "abcdefghijklmnopqrstuvwxyz")
	domain := randomString(6, "abcdefghijklmnopqrstuvwxyz")
	return fmt.Sprintf("%s@%s.com", user, domain), nil
}

func funcBase64(args []string) (string, error) {
	v, err := firstArg(args)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(v)), nil
}

func funcBase64Decode(args []string) (string, error) {
	v, err := firstArg(args)
	if err != nil {
		return "", err
	}
	decoded, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return string(decoded), nil
}

func funcMD5(args []string) (string, error) {
	v, err := firstArg(args)
	if err != nil {
		return "", err
	}
	hash := md5.Sum([]byte(v))
	return hex.EncodeToString(hash[:]), nil
}

func funcSHA256(args []string) (string, error) {
	v, err := firstArg(args)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256([]byte(v))
	return hex.EncodeToString(hash[:]), nil
}

func funcURLEncode(args []string) (string, error) {
	v, err := firstArg(args)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(v), nil
}

func funcURLDecode(args []string) (string, error) {
	v, err := firstArg(args)
	if err != nil {
		return "", err
	}
	decoded, err := url.QueryUnescape(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return decoded, nil
}

func funcEnv(args []string) (string, error) {
	name, err := firstArg(args)
	if err != nil {
		return "", err
	}
	return os.Getenv(name), nil
}

func randomString(length int, charset string) string {
	result := make([]byte, length)
	for i := range result {
		result[i] = charset[rand.IntN(len(charset))]
	}
	return string(result)
}
