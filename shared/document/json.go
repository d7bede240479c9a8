package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// treeDecoder reads untyped JSON straight into bson.M/bson.A, keeping
// integral numbers as int64. It serves every `any` slot of a typed target
// passed to Unmarshal.
type treeDecoder struct{}

func (d *treeDecoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	*(*any)(ptr) = readTree(iter)
}

func readTree(iter *jsoniter.Iterator) any {
	switch iter.WhatIsNext() {
	case jsoniter.NumberValue:
		return numberValue(iter.ReadNumber())
	case jsoniter.ObjectValue:
		doc := bson.M{}
		iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
			doc[key] = readTree(it)
			return true
		})
		return doc
	case jsoniter.ArrayValue:
		arr := bson.A{}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			arr = append(arr, readTree(it))
			return true
		})
		return arr
	default:
		return iter.Read()
	}
}

type TreeExtension struct {
	jsoniter.DummyExtension
}

func (extension *TreeExtension) CreateDecoder(typ reflect2.Type) jsoniter.ValDecoder {
	if typ == reflect2.TypeOfPtr((*any)(nil)).Elem() {
		return &treeDecoder{}
	}
	return nil
}

var jsonAPI = createTreeUnmarshaler()

func createTreeUnmarshaler() jsoniter.API {
	// no UseNumber: its interface decoder would shadow TreeExtension
	config := jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()
	config.RegisterExtension(&TreeExtension{})
	return config
}

func numberValue(n json.Number) any {
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// Unmarshal decodes strict JSON text into v. Fields typed `any` receive
// bson.M/bson.A trees.
func Unmarshal(text string, v any) error {
	return jsonAPI.UnmarshalFromString(text, v)
}

// DecodeJSON parses strict JSON text into a tree of bson.M, bson.A and scalars.
func DecodeJSON(text string) (any, error) {
	iter := jsonAPI.BorrowIterator([]byte(text))
	defer jsonAPI.ReturnIterator(iter)

	v := readTree(iter)
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return nil, iter.Error
	}
	// a number at the very end of the input leaves io.EOF behind
	if iter.Error == nil {
		iter.WhatIsNext()
		if iter.Error == nil {
			return nil, errors.New("unexpected data after JSON value")
		}
	}
	return v, nil
}

// DecodeDocument parses strict JSON text that must hold an object.
func DecodeDocument(text string) (bson.M, error) {
	v, err := DecodeJSON(text)
	if err != nil {
		return nil, err
	}
	doc, ok := v.(bson.M)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", kindOf(v))
	}
	return doc, nil
}

// kindOf names the JSON type of a decoded value.
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bson.M, map[string]any, bson.D:
		return "object"
	case bson.A, []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64, float64, int, int32:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
