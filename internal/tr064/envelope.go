package tr064

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const envelopeFormat = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/" xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <u:%s xmlns:u="%s"/>
  </s:Body>
</s:Envelope>`

// soapEnvelope renders the request envelope for an argument-less action.
func soapEnvelope(urn, action string) string {
	return fmt.Sprintf(envelopeFormat, action, urn)
}

// Response holds the leaf elements of a SOAP response body, indexed by
// their local name. Namespaces are ignored: TR-064 responses carry a
// single flat argument list and routers are not consistent about
// prefixes.
type Response struct {
	values map[string]string
}

// Value returns the character data of the named element.
func (r *Response) Value(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Require returns the character data of the named element, or a
// KindMalformedResponse error when the element is absent.
func (r *Response) Require(action, name string) (string, error) {
	v, ok := r.values[name]
	if !ok {
		return "", missingElementError(action, name)
	}
	return v, nil
}

func parseResponse(b []byte) (*Response, error) {
	dec := xml.NewDecoder(bytes.NewReader(b))
	values := make(map[string]string)

	var current string
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
			text.Reset()
		case xml.CharData:
			if current != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if current == t.Name.Local {
				values[current] = text.String()
			}
			current = ""
			text.Reset()
		}
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("no elements in response body")
	}

	return &Response{values: values}, nil
}
