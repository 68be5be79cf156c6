// Copyright 2023 AI Redefined Inc. <dev+cogment@ai-r.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

type Member struct {
	Key   string
	Value *Value
}

// Value is a generic JSON tree node. Object members keep their document order.
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	raw     string
	str     string
	items   []*Value
	members []Member
}

var parserPool fastjson.ParserPool

func ParseValue(data []byte) (*Value, error) {
	parser := parserPool.Get()
	defer parserPool.Put(parser)

	parsed, err := parser.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid json document: %w", err)
	}
	return fromFastJSON(parsed), nil
}

// MustParseValue panics on invalid input, meant for literals in tests and fixtures
func MustParseValue(data string) *Value {
	value, err := ParseValue([]byte(data))
	if err != nil {
		panic(err)
	}
	return value
}

// The fastjson tree is only valid until the parser is returned to the pool, so it is copied here.
func fromFastJSON(v *fastjson.Value) *Value {
	switch v.Type() {
	case fastjson.TypeTrue:
		return NewBool(true)
	case fastjson.TypeFalse:
		return NewBool(false)
	case fastjson.TypeNumber:
		return &Value{kind: KindNumber, number: v.GetFloat64(), raw: v.String()}
	case fastjson.TypeString:
		return NewString(string(v.GetStringBytes()))
	case fastjson.TypeArray:
		items := v.GetArray()
		result := &Value{kind: KindArray, items: make([]*Value, 0, len(items))}
		for _, item := range items {
			result.items = append(result.items, fromFastJSON(item))
		}
		return result
	case fastjson.TypeObject:
		result := &Value{kind: KindObject}
		v.GetObject().Visit(func(key []byte, member *fastjson.Value) {
			result.Set(string(key), fromFastJSON(member))
		})
		return result
	default:
		return Null()
	}
}

func Null() *Value {
	return &Value{kind: KindNull}
}

func NewBool(b bool) *Value {
	return &Value{kind: KindBool, boolean: b}
}

func NewNumber(n float64) *Value {
	return &Value{kind: KindNumber, number: n}
}

func NewString(s string) *Value {
	return &Value{kind: KindString, str: s}
}

func NewArray(items ...*Value) *Value {
	return &Value{kind: KindArray, items: items}
}

func NewObject(members ...Member) *Value {
	result := &Value{kind: KindObject}
	for _, member := range members {
		result.Set(member.Key, member.Value)
	}
	return result
}

// Kind returns KindNull for a nil receiver, a missing value behaves like null.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

func (v *Value) IsNull() bool {
	return v.Kind() == KindNull
}

// Set adds or replaces an object member, it is a no-op on non object values
func (v *Value) Set(key string, member *Value) {
	if v.Kind() != KindObject {
		return
	}
	if member == nil {
		member = Null()
	}
	for idx := range v.members {
		if v.members[idx].Key == key {
			v.members[idx].Value = member
			return
		}
	}
	v.members = append(v.members, Member{Key: key, Value: member})
}

func (v *Value) Members() []Member {
	if v.Kind() != KindObject {
		return nil
	}
	return v.members
}

func (v *Value) Items() []*Value {
	if v.Kind() != KindArray {
		return nil
	}
	return v.items
}

// Get returns the member named key, or nil when v is not an object or has no such member.
func (v *Value) Get(key string) *Value {
	switch v.Kind() {
	case KindObject:
		for _, member := range v.members {
			if member.Key == key {
				return member.Value
			}
		}
	case KindArray:
		idx, err := strconv.Atoi(key)
		if err == nil && idx >= 0 && idx < len(v.items) {
			return v.items[idx]
		}
	}
	return nil
}

// Lookup resolves a dotted path ("data.user.id"), array elements are addressed by index.
func (v *Value) Lookup(path string) *Value {
	if path == "" {
		return nil
	}
	current := v
	for _, part := range strings.Split(path, ".") {
		current = current.Get(part)
		if current == nil {
			return nil
		}
	}
	return current
}

func (v *Value) Bool() bool {
	return v.Kind() == KindBool && v.boolean
}

// Number converts numbers, booleans and numeric strings
func (v *Value) Number() (float64, bool) {
	switch v.Kind() {
	case KindNumber:
		return v.number, true
	case KindBool:
		if v.boolean {
			return 1, true
		}
		return 0, true
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Truthy follows the usual JSON-ish truthiness: null, false, 0, NaN and "" are falsy.
func (v *Value) Truthy() bool {
	switch v.Kind() {
	case KindBool:
		return v.boolean
	case KindNumber:
		return v.number != 0 && !math.IsNaN(v.number)
	case KindString:
		return v.str != ""
	case KindArray, KindObject:
		return true
	}
	return false
}

// Text renders a value as display text. Null renders empty, compound values render as compact JSON.
func (v *Value) Text() string {
	switch v.Kind() {
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindNumber:
		return formatNumber(v.number)
	case KindString:
		return v.str
	case KindArray, KindObject:
		b, _ := v.MarshalJSON()
		return string(b)
	}
	return ""
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.Abs(n) >= 1e21 {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func (v *Value) MarshalJSON() ([]byte, error) {
	b := &bytes.Buffer{}
	v.writeJSON(b)
	return b.Bytes(), nil
}

func (v *Value) writeJSON(b *bytes.Buffer) {
	switch v.Kind() {
	case KindBool:
		b.WriteString(strconv.FormatBool(v.boolean))
	case KindNumber:
		if v.raw != "" {
			b.WriteString(v.raw)
		} else if math.IsNaN(v.number) || math.IsInf(v.number, 0) {
			b.WriteString("null")
		} else {
			b.WriteString(formatNumber(v.number))
		}
	case KindString:
		writeJSONString(b, v.str)
	case KindArray:
		b.WriteByte('[')
		for idx, item := range v.items {
			if idx > 0 {
				b.WriteByte(',')
			}
			item.writeJSON(b)
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for idx, member := range v.members {
			if idx > 0 {
				b.WriteByte(',')
			}
			writeJSONString(b, member.Key)
			b.WriteByte(':')
			member.Value.writeJSON(b)
		}
		b.WriteByte('}')
	default:
		b.WriteString("null")
	}
}

func writeJSONString(b *bytes.Buffer, s string) {
	encoder := json.NewEncoder(b)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(s)
	// Encode always terminates with a newline
	b.Truncate(b.Len() - 1)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}
