package sample

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Value 是样本属性值：上游可能给单值，也可能给多值（例如一个样本标注了多个细胞类型）。
// 入口处统一归一化为列表，下游不再猜测形状。
type Value struct {
	items []string
	list  bool
}

// Scalar wraps a single attribute value.
func Scalar(v string) Value {
	return Value{items: []string{v}}
}

// List wraps a multi-valued attribute.
func List(vs ...string) Value {
	items := make([]string, len(vs))
	copy(items, vs)
	return Value{items: items, list: true}
}

// Items returns the values as a list; a scalar yields a one-element list.
func (v Value) Items() []string {
	if len(v.items) == 0 {
		return nil
	}
	out := make([]string, len(v.items))
	copy(out, v.items)
	return out
}

func (v Value) IsList() bool { return v.list }

func (v Value) Len() int { return len(v.items) }

func (v Value) String() string {
	if v.list {
		return strings.Join(v.items, ";")
	}
	if len(v.items) == 0 {
		return ""
	}
	return v.items[0]
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.list {
		items := v.items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	if len(v.items) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(v.items[0])
}

// UnmarshalJSON accepts a primitive or an array of primitives.
func (v *Value) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || !gjson.Valid(raw) {
		return fmt.Errorf("invalid attribute value %q", raw)
	}
	parsed := gjson.Parse(raw)
	switch {
	case parsed.Type == gjson.Null:
		*v = Value{}
		return nil
	case parsed.IsArray():
		items := make([]string, 0, len(parsed.Array()))
		var err error
		parsed.ForEach(func(_, item gjson.Result) bool {
			if item.Type == gjson.Null {
				return true
			}
			text, ok := primitiveText(item)
			if !ok {
				err = fmt.Errorf("attribute list holds non-primitive %s", item.Raw)
				return false
			}
			items = append(items, text)
			return true
		})
		if err != nil {
			return err
		}
		*v = Value{items: items, list: true}
		return nil
	default:
		text, ok := primitiveText(parsed)
		if !ok {
			return fmt.Errorf("attribute value must be a primitive or a list, got %s", parsed.Raw)
		}
		*v = Scalar(text)
		return nil
	}
}

func primitiveText(r gjson.Result) (string, bool) {
	switch r.Type {
	case gjson.String:
		return r.Str, true
	case gjson.Number:
		return strconv.FormatFloat(r.Num, 'f', -1, 64), true
	case gjson.True:
		return "true", true
	case gjson.False:
		return "false", true
	default:
		return "", false
	}
}
