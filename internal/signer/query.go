package signer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Param is a single key=value pair of a request query.
type Param struct {
	Key   string
	Value string
}

// Query is an ordered list of query parameters. The order in which
// parameters are supplied is the order in which they are encoded, signed and
// sent on the wire.
type Query []Param

// NewQuery builds a Query from alternating key, value arguments. A trailing
// key without a value is given an empty value.
func NewQuery(kv ...string) Query {
	q := make(Query, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		p := Param{Key: kv[i]}
		if i+1 < len(kv) {
			p.Value = kv[i+1]
		}
		q = append(q, p)
	}
	return q
}

// Add appends a parameter and returns the extended query.
func (q Query) Add(key, value string) Query {
	return append(q, Param{Key: key, Value: value})
}

// Encode returns the canonical query string: keys and values are
// percent-encoded with form encoding and joined with '&' in supplied order.
// An empty query encodes to the empty string.
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// UnmarshalJSON decodes a JSON object into a Query while keeping the member
// order of the document. Scalar values are stringified; arrays produce one
// parameter per element. null decodes to an empty query.
func (q *Query) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*q = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("query must be a JSON object")
	}

	out := Query{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("query key must be a string")
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return err
		}

		values, err := queryValues(value)
		if err != nil {
			return fmt.Errorf("query parameter %q: %w", key, err)
		}
		for _, v := range values {
			out = append(out, Param{Key: key, Value: v})
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*q = out
	return nil
}

func queryValues(value interface{}) ([]string, error) {
	if list, ok := value.([]interface{}); ok {
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, err := scalarString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}

	s, err := scalarString(value)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}

func scalarString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", value)
	}
}
