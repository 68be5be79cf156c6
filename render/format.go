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

package render

import (
	"bytes"
	jsonEncoding "encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v2"
)

type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

var ExpectedFormats = []Format{Text, JSON, YAML}

func ParseFormat(format string) (Format, error) {
	for _, expected := range ExpectedFormats {
		if Format(format) == expected {
			return expected, nil
		}
	}
	return Format("invalid"), fmt.Errorf(
		"invalid output format specified %q expecting one of %v",
		format,
		ExpectedFormats,
	)
}

func renderJSON(w io.Writer, value interface{}) error {
	serialized, err := jsonEncoding.Marshal(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(serialized))
	return err
}

// renderYAML goes through the JSON serialization so that custom JSON marshallers and key
// order are honored.
func renderYAML(w io.Writer, value interface{}) error {
	serialized, err := jsonEncoding.Marshal(value)
	if err != nil {
		return err
	}

	var document interface{}
	if trimmed := bytes.TrimSpace(serialized); len(trimmed) > 0 && trimmed[0] == '{' {
		mapping := yaml.MapSlice{}
		if err := yaml.Unmarshal(serialized, &mapping); err != nil {
			return err
		}
		document = mapping
	} else if err := yaml.Unmarshal(serialized, &document); err != nil {
		return err
	}

	out, err := yaml.Marshal(document)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Serialize renders value in one of the machine readable formats
func Serialize(w io.Writer, format Format, value interface{}) error {
	switch format {
	case JSON:
		return renderJSON(w, value)
	case YAML:
		return renderYAML(w, value)
	}
	return fmt.Errorf("format %q is not a serialization format", format)
}
