package service

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const exercisePath = "textbookExercise"

// Documents are re-indented with two spaces. Width 0 keeps every array on
// multiple lines and keys are never reordered.
var documentStyle = &pretty.Options{
	Width:    0,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// field is a key and its raw JSON value.
type field struct {
	key string
	raw []byte
}

// encodeJSON marshals v without HTML escaping and without a trailing newline.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func stringField(key, value string) (field, error) {
	raw, err := encodeJSON(value)
	if err != nil {
		return field{}, err
	}
	return field{key: key, raw: raw}, nil
}

// chapterTitleField copies metadata.title verbatim into key, or "" when the
// chapter has no title.
func chapterTitleField(doc []byte, key string) field {
	title := gjson.GetBytes(doc, "metadata.title")
	if !title.Exists() {
		return field{key: key, raw: []byte(`""`)}
	}
	return field{key: key, raw: []byte(title.Raw)}
}

// buildObject assembles a JSON object with fields in the given order.
func buildObject(fields ...field) ([]byte, error) {
	obj := []byte(`{}`)
	for _, f := range fields {
		var err error
		obj, err = sjson.SetRawBytes(obj, f.key, f.raw)
		if err != nil {
			return nil, eris.Wrapf(err, "document: set %s", f.key)
		}
	}
	return obj, nil
}

// setExerciseField replaces textbookExercise.<key> in doc, leaving every other
// byte of the document in place before re-indenting.
func setExerciseField(doc []byte, key string, value any) ([]byte, error) {
	raw, err := encodeJSON(value)
	if err != nil {
		return nil, eris.Wrapf(err, "document: encode %s", key)
	}
	out, err := sjson.SetRawBytes(doc, exercisePath+"."+key, raw)
	if err != nil {
		return nil, eris.Wrapf(err, "document: set %s.%s", exercisePath, key)
	}
	return pretty.PrettyOptions(out, documentStyle), nil
}

// setExercise replaces or appends the whole textbookExercise object.
func setExercise(doc []byte, fields ...field) ([]byte, error) {
	obj, err := buildObject(fields...)
	if err != nil {
		return nil, err
	}
	out, err := sjson.SetRawBytes(doc, exercisePath, obj)
	if err != nil {
		return nil, eris.Wrapf(err, "document: set %s", exercisePath)
	}
	return pretty.PrettyOptions(out, documentStyle), nil
}
