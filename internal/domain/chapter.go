package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Text is a lenient scalar string. Chapter documents are hand-edited and
// occasionally carry numbers or nulls where prose is expected.
type Text string

// UnmarshalJSON accepts strings, null, numbers and booleans.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case '{', '[':
		return errors.New("expected scalar text, got " + string(trimmed[:1]))
	default:
		*t = Text(trimmed)
		return nil
	}
}

// String returns the raw text.
func (t Text) String() string {
	return string(t)
}

// Trimmed returns the text without surrounding whitespace.
func (t Text) Trimmed() string {
	return strings.TrimSpace(string(t))
}

// KeyPoint is a concept key point stored either as a plain string or as an
// object with a text field.
type KeyPoint struct {
	Text string
}

// UnmarshalJSON accepts "point" and {"text": "point"}.
func (k *KeyPoint) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			Text Text `json:"text"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		k.Text = obj.Text.String()
		return nil
	}
	var t Text
	if err := t.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	k.Text = t.String()
	return nil
}

// Metadata holds the chapter header fields the passes read.
type Metadata struct {
	Title   Text `json:"title"`
	Subject Text `json:"subject"`
}

// Concept is a titled content block with explanatory text and key points.
type Concept struct {
	Title     Text       `json:"title"`
	Content   Text       `json:"content"`
	KeyPoints []KeyPoint `json:"keyPoints"`
}

// TestItem is one question of the chapter test bank.
type TestItem struct {
	Question    Text `json:"question"`
	Explanation Text `json:"explanation"`
}

// ExerciseQuestion is one entry of textbookExercise.questions.
type ExerciseQuestion struct {
	Type         Text   `json:"type"`
	Question     Text   `json:"question"`
	SubQuestions []Text `json:"subQuestions"`
}

// TextbookExercise is the textbookExercise block of a chapter.
type TextbookExercise struct {
	ChapterName Text               `json:"chapterName"`
	Questions   []ExerciseQuestion `json:"questions"`

	// LongAnswers and QACards are kept raw: passes only need to know whether
	// a well-formed list is already stored and how long it is.
	LongAnswers json.RawMessage `json:"longAnswers"`
	QACards     json.RawMessage `json:"qaCards"`
}

// StoredLongAnswers reports the length of the stored longAnswers list and
// whether it is a JSON array at all.
func (e *TextbookExercise) StoredLongAnswers() (int, bool) {
	if e == nil {
		return 0, false
	}
	return arrayLen(e.LongAnswers)
}

// StoredQACards reports the length of the stored qaCards list and whether it
// is a JSON array at all.
func (e *TextbookExercise) StoredQACards() (int, bool) {
	if e == nil {
		return 0, false
	}
	return arrayLen(e.QACards)
}

func arrayLen(raw json.RawMessage) (int, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return 0, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return 0, false
	}
	return len(items), true
}

// Chapter is the parsed view of one corpus document. Raw keeps the original
// bytes so a pass can rewrite a single field without disturbing the rest.
type Chapter struct {
	Key      string
	Raw      []byte
	Metadata Metadata
	Concepts []Concept
	Test     []TestItem
	Exercise *TextbookExercise
}

type chapterDocument struct {
	Metadata         *Metadata       `json:"metadata"`
	Concepts         []Concept       `json:"concepts"`
	Test             []TestItem      `json:"test"`
	TextbookExercise json.RawMessage `json:"textbookExercise"`
}

// ParseChapter decodes a corpus document. A textbookExercise that is not a
// JSON object is treated as absent; any other shape mismatch is an
// ErrMalformedChapter.
func ParseChapter(key string, raw []byte) (*Chapter, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, MalformedChapter(key, errors.New("document is not a JSON object"))
	}

	var doc chapterDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, MalformedChapter(key, err)
	}

	ch := &Chapter{
		Key:      key,
		Raw:      raw,
		Concepts: doc.Concepts,
		Test:     doc.Test,
	}
	if doc.Metadata != nil {
		ch.Metadata = *doc.Metadata
	}

	ex := bytes.TrimSpace(doc.TextbookExercise)
	if len(ex) > 0 && ex[0] == '{' {
		var exercise TextbookExercise
		if err := json.Unmarshal(ex, &exercise); err != nil {
			return nil, MalformedChapter(key, err)
		}
		ch.Exercise = &exercise
	}

	return ch, nil
}

// HasExercise reports whether the chapter carries a textbookExercise object.
func (c *Chapter) HasExercise() bool {
	return c.Exercise != nil
}
