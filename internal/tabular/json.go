package tabular

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/justapithecus/s3lake/lake"
)

// JSON document shapes.
const (
	ShapeArray   = "array"
	ShapeObject  = "object"
	ShapeString  = "string"
	ShapeNumber  = "number"
	ShapeBoolean = "boolean"
	ShapeNull    = "null"
)

var errEmptyDocument = errors.New("expecting value: empty document")

var strict = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Document is a decoded JSON file.
type Document struct {
	// Shape is the top-level JSON type.
	Shape string

	// Items holds the elements of an array document, in file order.
	Items []jsoniter.RawMessage

	// Keys holds the member names of an object document, in file order.
	Keys []string

	// Raw is the whole document.
	Raw jsoniter.RawMessage
}

// ReadJSON decodes a single JSON value.
func ReadJSON(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, lake.FormatError("JSON", errEmptyDocument)
	}

	var probe any
	if err := strict.Unmarshal(data, &probe); err != nil {
		return nil, lake.FormatError("JSON", err)
	}

	doc := &Document{Raw: jsoniter.RawMessage(bytes.TrimSpace(data))}
	iter := jsoniter.ParseBytes(strict, data)
	switch iter.WhatIsNext() {
	case jsoniter.ArrayValue:
		doc.Shape = ShapeArray
		doc.Items = []jsoniter.RawMessage{}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			item := bytes.TrimSpace(it.SkipAndReturnBytes())
			doc.Items = append(doc.Items, append(jsoniter.RawMessage(nil), item...))
			return true
		})
	case jsoniter.ObjectValue:
		doc.Shape = ShapeObject
		doc.Keys = []string{}
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			doc.Keys = append(doc.Keys, key)
			it.Skip()
			return true
		})
	case jsoniter.StringValue:
		doc.Shape = ShapeString
	case jsoniter.NumberValue:
		doc.Shape = ShapeNumber
	case jsoniter.BoolValue:
		doc.Shape = ShapeBoolean
	default:
		doc.Shape = ShapeNull
	}
	if iter.Error != nil {
		return nil, lake.FormatError("JSON", iter.Error)
	}
	return doc, nil
}

// ReadJSONLines decodes newline-delimited JSON into an array document.
// Blank lines are skipped.
func ReadJSONLines(data []byte) (*Document, error) {
	doc := &Document{Shape: ShapeArray, Items: []jsoniter.RawMessage{}}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var probe any
		if err := strict.Unmarshal(text, &probe); err != nil {
			return nil, lake.FormatError("JSON", fmt.Errorf("line %d: %w", line, err))
		}
		doc.Items = append(doc.Items, append(jsoniter.RawMessage(nil), text...))
	}
	if err := sc.Err(); err != nil {
		return nil, lake.FormatError("JSON", err)
	}

	raw, err := json.Marshal(doc.Items)
	if err != nil {
		return nil, lake.FormatError("JSON", err)
	}
	doc.Raw = raw
	return doc, nil
}

// Head returns the first n array items and whether items were dropped.
// n <= 0 means no cap.
func (d *Document) Head(n int) ([]jsoniter.RawMessage, bool) {
	if n <= 0 || len(d.Items) <= n {
		return d.Items, false
	}
	return d.Items[:n], true
}
