package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Answer is a candidate answer: a whole number for arithmetic types, text for
// shapes, fractions and clock times. It encodes as a bare JSON number or string.
type Answer struct {
	Number int
	Text   string
	IsText bool
}

func NumberAnswer(n int) Answer { return Answer{Number: n} }

func TextAnswer(s string) Answer { return Answer{Text: s, IsText: true} }

func (a Answer) String() string {
	if a.IsText {
		return a.Text
	}
	return strconv.Itoa(a.Number)
}

func NumberAnswers(ns []int) []Answer {
	out := make([]Answer, len(ns))
	for i, n := range ns {
		out[i] = NumberAnswer(n)
	}
	return out
}

func TextAnswers(ss []string) []Answer {
	out := make([]Answer, len(ss))
	for i, s := range ss {
		out[i] = TextAnswer(s)
	}
	return out
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsText {
		return json.Marshal(a.Text)
	}
	return json.Marshal(a.Number)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("answer must be a string or an integer: %w", err)
	}
	*a = NumberAnswer(n)
	return nil
}
