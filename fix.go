package yamlsplice

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	gyaml "github.com/goccy/go-yaml"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Fix is a payload to insert or to use as a replacement. It is a closed sum of
// String, Number, Bool, Null, Mapping and Sequence.
type Fix interface {
	isFix()
}

type (
	// String is a text scalar.
	String string
	// Number holds the literal text of a numeric scalar, e.g. "42" or "1.5e3".
	Number string
	// Bool is a boolean scalar.
	Bool bool
	// Null is the null scalar.
	Null struct{}
	// Mapping is an ordered set of uniquely keyed members.
	Mapping []Member
	// Sequence is an ordered list of values.
	Sequence []Fix
)

// Member is one key/value pair of a Mapping.
type Member struct {
	Key   string
	Value Fix
}

func (String) isFix() {}
func (Number) isFix() {}
func (Bool) isFix() {}
func (Null) isFix() {}
func (Mapping) isFix() {}
func (Sequence) isFix() {}

// Int returns the Number for i.
func Int(i int64) Number { return Number(strconv.FormatInt(i, 10)) }

// Float returns the shortest Number representing f.
func Float(f float64) Number { return Number(strconv.FormatFloat(f, 'g', -1, 64)) }

// Get returns the value stored under key.
func (m Mapping) Get(key string) (Fix, bool) {
	for _, it := range m {
		if it.Key == key {
			return it.Value, true
		}
	}
	return nil, false
}

// Set replaces the value under key or appends a new member.
func (m Mapping) Set(key string, v Fix) Mapping {
	for i := range m {
		if m[i].Key == key {
			m[i].Value = v
			return m
		}
	}
	return append(m, Member{Key: key, Value: v})
}

// Keys returns the member keys in order.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, it := range m {
		keys = append(keys, it.Key)
	}
	return keys
}

// Validate checks that f can be rendered: no nil values and no duplicate keys.
func Validate(f Fix) error {
	switch v := f.(type) {
	case nil:
		return fmt.Errorf("%w: nil value", ErrSerialization)
	case Mapping:
		seen := make(map[string]struct{}, len(v))
		for _, it := range v {
			if _, dup := seen[it.Key]; dup {
				return fmt.Errorf("%w: duplicate key %q", ErrSerialization, it.Key)
			}
			seen[it.Key] = struct{}{}
			if err := Validate(it.Value); err != nil {
				return err
			}
		}
	case Sequence:
		for _, e := range v {
			if err := Validate(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// FromValue converts a Go value into a Fix. Ordered goccy MapSlices keep their
// order; plain Go maps are sorted by key.
func FromValue(v any) (Fix, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Fix:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t.String()), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Number(strconv.FormatUint(uint64(t), 10)), nil
	case uint8:
		return Number(strconv.FormatUint(uint64(t), 10)), nil
	case uint16:
		return Number(strconv.FormatUint(uint64(t), 10)), nil
	case uint32:
		return Number(strconv.FormatUint(uint64(t), 10)), nil
	case uint64:
		return Number(strconv.FormatUint(t, 10)), nil
	case float32:
		return fromFloat(float64(t))
	case float64:
		return fromFloat(t)
	case gyaml.MapSlice:
		m := make(Mapping, 0, len(t))
		for _, it := range t {
			val, err := FromValue(it.Value)
			if err != nil {
				return nil, err
			}
			m = m.Set(fmt.Sprint(it.Key), val)
		}
		return m, nil
	case []any:
		seq := make(Sequence, 0, len(t))
		for _, e := range t {
			val, err := FromValue(e)
			if err != nil {
				return nil, err
			}
			seq = append(seq, val)
		}
		return seq, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Null{}, nil
		}
		return FromValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		seq := make(Sequence, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			val, err := FromValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			seq = append(seq, val)
		}
		return seq, nil
	case reflect.Map:
		keys := rv.MapKeys()
		names := make([]string, len(keys))
		byName := make(map[string]reflect.Value, len(keys))
		for i, k := range keys {
			names[i] = fmt.Sprint(k.Interface())
			byName[names[i]] = k
		}
		sort.Strings(names)
		m := make(Mapping, 0, len(keys))
		for _, name := range names {
			val, err := FromValue(rv.MapIndex(byName[name]).Interface())
			if err != nil {
				return nil, err
			}
			m = append(m, Member{Key: name, Value: val})
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: unsupported type %T", ErrSerialization, v)
}

func fromFloat(f float64) (Fix, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: non-finite number %v", ErrSerialization, f)
	}
	return Float(f), nil
}

// ParseFix decodes a payload written in format. JSON keeps member order through
// gjson iteration; YAML keeps literal number text through the yaml.v3 node tree.
func ParseFix(text string, format Format) (Fix, error) {
	if format == FormatJSON {
		if !gjson.Valid(text) {
			return nil, fmt.Errorf("%w: invalid JSON payload", ErrSerialization)
		}
		return fromGJSON(gjson.Parse(text)), nil
	}

	var n yaml.Node
	if err := yaml.Unmarshal([]byte(text), &n); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	if n.Kind == 0 || len(n.Content) == 0 {
		return Null{}, nil
	}
	return fromYAMLNode(n.Content[0])
}

func fromGJSON(r gjson.Result) Fix {
	switch r.Type {
	case gjson.Null:
		return Null{}
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		return Number(strings.TrimSpace(r.Raw))
	case gjson.String:
		return String(r.Str)
	}
	if r.IsArray() {
		seq := Sequence{}
		r.ForEach(func(_, v gjson.Result) bool {
			seq = append(seq, fromGJSON(v))
			return true
		})
		return seq
	}
	m := Mapping{}
	r.ForEach(func(k, v gjson.Result) bool {
		m = m.Set(k.Str, fromGJSON(v))
		return true
	})
	return m
}

func fromYAMLNode(n *yaml.Node) (Fix, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null{}, nil
		}
		return fromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return Null{}, nil
		}
		return fromYAMLNode(n.Alias)
	case yaml.MappingNode:
		m := make(Mapping, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			val, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m = m.Set(n.Content[i].Value, val)
		}
		return m, nil
	case yaml.SequenceNode:
		seq := make(Sequence, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := fromYAMLNode(c)
			if err != nil {
				return nil, err
			}
			seq = append(seq, val)
		}
		return seq, nil
	}

	switch n.ShortTag() {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
		}
		return Bool(b), nil
	case "!!int":
		if jsonNumberRE.MatchString(n.Value) {
			return Number(n.Value), nil
		}
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
		}
		return Int(i), nil
	case "!!float":
		if jsonNumberRE.MatchString(n.Value) {
			return Number(n.Value), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
		}
		return fromFloat(f)
	}
	return String(n.Value), nil
}

// Equal reports whether two fixes hold the same data. Numbers compare by value and
// mappings ignore member order.
func Equal(a, b Fix) bool {
	switch x := a.(type) {
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Null:
		_, ok := b.(Null)
		return ok
	case Number:
		y, ok := b.(Number)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		fx, ex := strconv.ParseFloat(string(x), 64)
		fy, ey := strconv.ParseFloat(string(y), 64)
		return ex == nil && ey == nil && fx == fy
	case Sequence:
		y, ok := b.(Sequence)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Mapping:
		y, ok := b.(Mapping)
		if !ok || len(x) != len(y) {
			return false
		}
		for _, it := range x {
			other, found := y.Get(it.Key)
			if !found || !Equal(it.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}
