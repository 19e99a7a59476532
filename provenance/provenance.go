// Package provenance encodes trace processing parameters as SEIS-PROV
// documents in W3C PROV-XML and decodes them again.
package provenance

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/errs"

	"github.com/robert-malhotra/go-asdf/stream"
)

// Error is the error class for provenance conversion failures.
var Error = errs.Class("provenance")

const (
	provNS    = "http://www.w3.org/ns/prov#"
	seisNS    = "http://seisprov.org/seis_prov/0.1/#"
	xsiNS     = "http://www.w3.org/2001/XMLSchema-instance"
	xsdNS     = "http://www.w3.org/2001/XMLSchema"
	seisPfx   = "seis_prov:"
	idPrefix  = "sp001_"
	agentCode = "sa"
	stepCode  = "pr"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// Activity is one processing step and its parameters.
type Activity struct {
	ID         string
	Label      string
	Parameters stream.Parameters
}

// Document is a SEIS-PROV record: the software agent and the processing
// activities it carried out.
type Document struct {
	Software   stream.Software
	AgentID    string
	Activities []Activity
}

// NewID returns a SEIS-PROV identifier for the two letter type code.
func NewID(code string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return seisPfx + idPrefix + code + "_" + hex[:7]
}

// FromStream returns one document per processed trace, describing that
// trace's processing parameters. A trace's own Software takes precedence
// over software.
func FromStream(st *stream.Stream, software stream.Software) ([]*Document, error) {
	var docs []*Document
	for _, tr := range st.Traces {
		if !tr.IsProcessed() {
			continue
		}
		sw := software
		if tr.Stats.Software != nil {
			sw = *tr.Stats.Software
		}
		for key, v := range tr.Stats.ProcessingParameters {
			if _, _, err := encodeValue(key, v); err != nil {
				return nil, Error.New("trace %s: %v", tr.ID(), err)
			}
		}
		docs = append(docs, &Document{
			Software: sw,
			AgentID:  NewID(agentCode),
			Activities: []Activity{{
				ID:         NewID(stepCode),
				Label:      tr.ID(),
				Parameters: tr.Stats.ProcessingParameters,
			}},
		})
	}
	if len(docs) == 0 {
		return nil, Error.New("stream has no processed traces")
	}
	return docs, nil
}

// Extract flattens the document's activities into one parameter record.
// Later activities override earlier ones on key collisions. The returned
// software is nil when the document names none.
func Extract(doc *Document) (stream.Parameters, *stream.Software) {
	params := stream.Parameters{}
	for _, act := range doc.Activities {
		for k, v := range act.Parameters {
			params[k] = v
		}
	}
	if doc.Software == (stream.Software{}) {
		return params, nil
	}
	sw := doc.Software
	return params, &sw
}

// node is a generic XML element. Marshalled names carry their prefix
// literally; unmarshalled names carry the resolved namespace.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func elem(name string, attrs ...xml.Attr) node {
	return node{XMLName: xml.Name{Local: name}, Attrs: attrs}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func typed(name, xsdType, value string) node {
	n := elem(name, attr("xsi:type", "xsd:"+xsdType))
	n.Text = value
	return n
}

// Marshal encodes the document as PROV-XML.
func Marshal(doc *Document) ([]byte, error) {
	root := elem("prov:document",
		attr("xmlns:prov", provNS),
		attr("xmlns:seis_prov", seisNS),
		attr("xmlns:xsi", xsiNS),
		attr("xmlns:xsd", xsdNS),
	)

	agentID := doc.AgentID
	if agentID == "" {
		agentID = NewID(agentCode)
	}
	agent := elem("prov:softwareAgent", attr("prov:id", agentID))
	label := elem("prov:label")
	label.Text = doc.Software.Name
	agent.Children = append(agent.Children,
		label,
		typed(seisPfx+"software_name", "string", doc.Software.Name),
		typed(seisPfx+"software_version", "string", doc.Software.Version),
	)
	if doc.Software.Website != "" {
		agent.Children = append(agent.Children, typed(seisPfx+"website", "anyURI", doc.Software.Website))
	}
	root.Children = append(root.Children, agent)

	for _, act := range doc.Activities {
		id := act.ID
		if id == "" {
			id = NewID(stepCode)
		}
		a := elem("prov:activity", attr("prov:id", id))
		label := elem("prov:label")
		label.Text = act.Label
		kind := typed("prov:type", "string", seisPfx+"processing")
		a.Children = append(a.Children, label, kind)

		keys := make([]string, 0, len(act.Parameters))
		for k := range act.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			xsdType, text, err := encodeValue(k, act.Parameters[k])
			if err != nil {
				return nil, Error.Wrap(err)
			}
			a.Children = append(a.Children, typed(seisPfx+k, xsdType, text))
		}

		assoc := elem("prov:wasAssociatedWith")
		assoc.Children = []node{
			elem("prov:activity", attr("prov:ref", id)),
			elem("prov:agent", attr("prov:ref", agentID)),
		}
		root.Children = append(root.Children, a, assoc)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return nil, Error.Wrap(err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Unmarshal decodes a PROV-XML document. Elements outside the subset
// written by Marshal are ignored.
func Unmarshal(data []byte) (*Document, error) {
	var root node
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, Error.Wrap(err)
	}
	if root.XMLName.Local != "document" {
		return nil, Error.New("unexpected root element %q", root.XMLName.Local)
	}

	doc := &Document{}
	for _, child := range root.Children {
		switch child.XMLName.Local {
		case "softwareAgent":
			if doc.AgentID != "" {
				continue
			}
			doc.AgentID = attrValue(child, "id")
			for _, f := range child.Children {
				if f.XMLName.Space != seisNS {
					continue
				}
				switch f.XMLName.Local {
				case "software_name":
					doc.Software.Name = strings.TrimSpace(f.Text)
				case "software_version":
					doc.Software.Version = strings.TrimSpace(f.Text)
				case "website":
					doc.Software.Website = strings.TrimSpace(f.Text)
				}
			}
		case "activity":
			act := Activity{ID: attrValue(child, "id"), Parameters: stream.Parameters{}}
			for _, f := range child.Children {
				if f.XMLName.Local == "label" && f.XMLName.Space == provNS {
					act.Label = strings.TrimSpace(f.Text)
					continue
				}
				if f.XMLName.Space != seisNS {
					continue
				}
				v, err := decodeValue(attrValue(f, "type"), f.Text)
				if err != nil {
					return nil, Error.New("%s: %v", f.XMLName.Local, err)
				}
				act.Parameters[f.XMLName.Local] = v
			}
			doc.Activities = append(doc.Activities, act)
		}
	}
	return doc, nil
}

func attrValue(n node, local string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func encodeValue(key string, v any) (xsdType, text string, err error) {
	if !keyPattern.MatchString(key) {
		return "", "", Error.New("invalid parameter name %q", key)
	}
	switch v := v.(type) {
	case string:
		return "string", v, nil
	case bool:
		return "boolean", strconv.FormatBool(v), nil
	case int:
		return "long", strconv.FormatInt(int64(v), 10), nil
	case int32:
		return "long", strconv.FormatInt(int64(v), 10), nil
	case int64:
		return "long", strconv.FormatInt(v, 10), nil
	case float32:
		return "double", strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return "double", strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		return "", "", Error.New("parameter %q: unsupported type %T", key, v)
	}
}

func decodeValue(xsdType, text string) (any, error) {
	typ := xsdType
	if _, after, ok := strings.Cut(xsdType, ":"); ok {
		typ = after
	}
	// String values are kept verbatim, surrounding whitespace included.
	switch typ {
	case "boolean":
		return strconv.ParseBool(strings.TrimSpace(text))
	case "long", "int", "integer", "short":
		return strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	case "double", "float", "decimal":
		return strconv.ParseFloat(strings.TrimSpace(text), 64)
	default:
		return text, nil
	}
}
