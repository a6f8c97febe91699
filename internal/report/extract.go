package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/negneg-eq-submitter/internal/domain"
)

const softwareVersionsKey = "softwareVersions"

// CaseDetails are the fields of a fetched interpretation request that feed
// the summary of findings.
type CaseDetails struct {
	CaseID           string
	GenomeAssembly   string
	SoftwareVersions map[string]string
}

// ExtractCaseDetails pulls the case id, genome assembly and software
// versions out of an interpretation request.
func ExtractCaseDetails(ir *domain.InterpretationRequest) (*CaseDetails, error) {
	if ir.CaseID == "" {
		return nil, domain.NewDataError("interpretation request has no case_id", nil)
	}
	if ir.Assembly == "" {
		return nil, domain.NewDataError("interpretation request has no assembly", nil)
	}

	versions, err := ExtractSoftwareVersions(ir.InterpretedGenome)
	if err != nil {
		return nil, err
	}

	return &CaseDetails{
		CaseID:           ir.CaseID,
		GenomeAssembly:   ir.Assembly,
		SoftwareVersions: versions,
	}, nil
}

// ExtractSoftwareVersions returns the first softwareVersions object in the
// interpreted genome, in document order.
func ExtractSoftwareVersions(raw json.RawMessage) (map[string]string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, domain.NewDataError("interpretation request has no interpreted_genome", nil)
	}

	found, ok, err := firstObject(raw, softwareVersionsKey)
	if err != nil {
		return nil, domain.NewDataError("interpreted_genome is not valid JSON", err)
	}
	if !ok {
		return nil, domain.NewDataError("interpreted_genome has no softwareVersions", nil)
	}

	dec := json.NewDecoder(bytes.NewReader(found))
	dec.UseNumber()
	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, domain.NewDataError("softwareVersions is not valid JSON", err)
	}

	versions := make(map[string]string, len(obj))
	for name, v := range obj {
		if v == nil {
			continue
		}
		versions[name] = fmt.Sprint(v)
	}
	return versions, nil
}

// level tracks one open object or array while streaming tokens
type level struct {
	object    bool
	expectKey bool
}

// firstObject streams raw and returns the first value stored under key that
// is itself a JSON object. Values under key that are not objects are
// searched too.
func firstObject(raw []byte, key string) (json.RawMessage, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	var stack []level

	// valueDone marks the enclosing object as ready for its next key
	valueDone := func() {
		if n := len(stack); n > 0 && stack[n-1].object {
			stack[n-1].expectKey = true
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if len(stack) > 0 {
				return nil, false, io.ErrUnexpectedEOF
			}
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}

		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				stack = append(stack, level{object: true, expectKey: true})
			case '[':
				stack = append(stack, level{})
			default:
				stack = stack[:len(stack)-1]
				valueDone()
			}
			continue
		case string:
			n := len(stack)
			if n == 0 || !stack[n-1].object || !stack[n-1].expectKey {
				break
			}
			stack[n-1].expectKey = false
			if t != key {
				continue
			}

			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return nil, false, err
			}
			if trimmed := bytes.TrimSpace(value); len(trimmed) > 0 && trimmed[0] == '{' {
				return value, true, nil
			}
			if found, ok, err := firstObject(value, key); ok || err != nil {
				return found, ok, err
			}
		}
		valueDone()
	}
}
