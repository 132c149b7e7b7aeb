package builtins

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/russross/blackfriday/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"avon/internal/errs"
	"avon/internal/value"
)

// formatBuiltins wires the eight-data-format family. Each format gets a
// `*_parse` (reads a file path via the Caller's working directory, mirroring
// read_file), a `*_parse_string` (same decoding, raw text in hand already),
// and a `format_*` encoder, per the design's convention of naming the parse
// direction after the format and the encode direction after the verb. YAML
// rides on the teacher's own gopkg.in/yaml.v3 and TOML on BurntSushi/toml
// (not a teacher dependency; see DESIGN.md); JSON decoding uses tidwall/gjson (carried by the Amr-9-Sayl example) since
// it already appears in the retrieval pack, though its Marshal direction
// still goes through encoding/json — see DESIGN.md for why gjson alone
// can't cover format_json. XML and OPML have no pack library, so both use
// encoding/xml (see DESIGN.md).
func formatBuiltins() map[string]value.Value {
	return map[string]value.Value{
		"json_parse":        fn("json_parse", 1, pathThen(jsonParseString)),
		"json_parse_string": fn("json_parse_string", 1, jsonParseString),
		"format_json":       fn("format_json", 1, formatJSON),

		"yaml_parse":        fn("yaml_parse", 1, pathThen(yamlParseString)),
		"yaml_parse_string": fn("yaml_parse_string", 1, yamlParseString),
		"format_yaml":       fn("format_yaml", 1, formatYAML),

		"toml_parse":        fn("toml_parse", 1, pathThen(tomlParseString)),
		"toml_parse_string": fn("toml_parse_string", 1, tomlParseString),
		"format_toml":       fn("format_toml", 1, formatTOML),

		"csv_parse":        fn("csv_parse", 1, pathThen(csvParseString)),
		"csv_parse_string": fn("csv_parse_string", 1, csvParseString),
		"format_csv":       fn("format_csv", 1, formatCSV),

		"xml_parse":        fn("xml_parse", 1, pathThen(xmlParseString)),
		"xml_parse_string": fn("xml_parse_string", 1, xmlParseString),
		"format_xml":       fn("format_xml", 1, formatXML),

		"opml_parse":        fn("opml_parse", 1, pathThen(opmlParseString)),
		"opml_parse_string": fn("opml_parse_string", 1, opmlParseString),
		"format_opml":       fn("format_opml", 1, formatOPML),

		"html_parse":        fn("html_parse", 1, pathThen(htmlParseString)),
		"html_parse_string": fn("html_parse_string", 1, htmlParseString),
		"format_html":       fn("format_html", 1, formatHTML),

		"ini_parse":        fn("ini_parse", 1, pathThen(iniParseString)),
		"ini_parse_string": fn("ini_parse_string", 1, iniParseString),
		"format_ini":       fn("format_ini", 1, formatINI),

		"markdown_to_html": fn("markdown_to_html", 1, markdownToHTML),
		"html_text":        fn("html_text", 1, htmlText),
	}
}

// pathThen turns a `*_parse_string(text)` handler into a `*_parse(path)`
// handler that reads the file relative to the caller's working directory
// first, the same resolution read_file uses.
func pathThen(parseString value.BuiltinFunc) value.BuiltinFunc {
	return func(c value.Caller, args []value.Value) (value.Value, error) {
		if args[0].Kind != value.KindString {
			return value.Value{}, value.TypeError("string", args[0])
		}
		path := args[0].Str
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.WorkDir(), path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return value.Value{}, errs.New(errs.KindIO, errs.Span{}, errs.ErrFileNotFound, "%s: %v", path, err)
		}
		return parseString(c, []value.Value{value.Str(string(data))})
	}
}

func jsonParseString(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	r := gjson.Parse(args[0].Str)
	if !r.Exists() && strings.TrimSpace(args[0].Str) != "null" {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "json_parse_string: invalid JSON")
	}
	return gjsonToValue(r), nil
}

// gjsonToValue walks a gjson.Result tree, preserving object key order via
// ForEach (gjson iterates object members in source order, unlike
// encoding/json's map decoding).
func gjsonToValue(r gjson.Result) value.Value {
	switch {
	case r.IsObject():
		d := value.NewDict()
		r.ForEach(func(k, v gjson.Result) bool {
			d = d.With(k.String(), gjsonToValue(v))
			return true
		})
		return value.Dict(d)
	case r.IsArray():
		var items []value.Value
		r.ForEach(func(_, v gjson.Result) bool {
			items = append(items, gjsonToValue(v))
			return true
		})
		return value.List(items)
	case r.Type == gjson.String:
		return value.Str(r.String())
	case r.Type == gjson.Number:
		if r.Num == float64(int64(r.Num)) && !strings.ContainsAny(r.Raw, ".eE") {
			return value.Int(int64(r.Num))
		}
		return value.Float(r.Num)
	case r.Type == gjson.True:
		return value.True
	case r.Type == gjson.False:
		return value.False
	default:
		return value.None
	}
}

func formatJSON(_ value.Caller, args []value.Value) (value.Value, error) {
	g, err := valueToGo(args[0])
	if err != nil {
		return value.Value{}, err
	}
	out, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "format_json: %v", err)
	}
	return value.Str(string(out)), nil
}

func yamlParseString(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	var raw any
	if err := yaml.Unmarshal([]byte(args[0].Str), &raw); err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "yaml_parse_string: %v", err)
	}
	return goToValue(raw)
}

func formatYAML(_ value.Caller, args []value.Value) (value.Value, error) {
	g, err := valueToGo(args[0])
	if err != nil {
		return value.Value{}, err
	}
	out, err := yaml.Marshal(g)
	if err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "format_yaml: %v", err)
	}
	return value.Str(string(out)), nil
}

func tomlParseString(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	var raw map[string]any
	if _, err := toml.Decode(args[0].Str, &raw); err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "toml_parse_string: %v", err)
	}
	return goToValue(raw)
}

func formatTOML(_ value.Caller, args []value.Value) (value.Value, error) {
	g, err := valueToGo(args[0])
	if err != nil {
		return value.Value{}, err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(g); err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "format_toml: %v", err)
	}
	return value.Str(buf.String()), nil
}

func csvParseString(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	r := csv.NewReader(strings.NewReader(args[0].Str))
	records, err := r.ReadAll()
	if err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "csv_parse_string: %v", err)
	}
	rows := make([]value.Value, len(records))
	for i, rec := range records {
		cells := make([]value.Value, len(rec))
		for j, c := range rec {
			cells[j] = value.Str(c)
		}
		rows[i] = value.List(cells)
	}
	return value.List(rows), nil
}

func formatCSV(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindList {
		return value.Value{}, value.TypeError("list of lists", args[0])
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range args[0].List.Items {
		if row.Kind != value.KindList {
			return value.Value{}, value.TypeError("list of lists", row)
		}
		rec := make([]string, len(row.List.Items))
		for i, c := range row.List.Items {
			rec[i] = stringify(c)
		}
		if err := w.Write(rec); err != nil {
			return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "format_csv: %v", err)
		}
	}
	w.Flush()
	return value.Str(buf.String()), nil
}

func stringify(v value.Value) string {
	if v.Kind == value.KindString {
		return v.Str
	}
	return value.Inspect(v)
}

// xmlNode is the generic shape xml_parse decodes into and format_xml
// encodes from: {tag: string, attrs: dict, text: string, children: list}.
// encoding/xml has no "decode to generic tree" mode the way json/yaml do,
// so the `,any` and `,any,attr` tags below make xml.Unmarshal collect every
// child element and attribute into this one recursive struct.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

func xmlNodeToValue(n xmlNode) value.Value {
	d := value.NewDict()
	d = d.With("tag", value.Str(n.XMLName.Local))
	attrs := value.NewDict()
	for _, a := range n.Attrs {
		attrs = attrs.With(a.Name.Local, value.Str(a.Value))
	}
	d = d.With("attrs", value.Dict(attrs))
	d = d.With("text", value.Str(strings.TrimSpace(n.Content)))
	children := make([]value.Value, len(n.Children))
	for i, c := range n.Children {
		children[i] = xmlNodeToValue(c)
	}
	d = d.With("children", value.List(children))
	return value.Dict(d)
}

func xmlParseString(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	var root xmlNode
	if err := xml.Unmarshal([]byte(args[0].Str), &root); err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "xml_parse_string: %v", err)
	}
	return xmlNodeToValue(root), nil
}

// valueToXMLNode is format_xml's inverse of xmlNodeToValue; a dict missing
// "tag" is a domain error since every XML element needs a name.
func valueToXMLNode(v value.Value) (xmlNode, error) {
	if v.Kind != value.KindDict {
		return xmlNode{}, value.TypeError("dict", v)
	}
	tagV, ok := v.Dict.Get("tag")
	if !ok || tagV.Kind != value.KindString {
		return xmlNode{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "format_xml: node missing string \"tag\"")
	}
	n := xmlNode{XMLName: xml.Name{Local: tagV.Str}}
	if attrsV, ok := v.Dict.Get("attrs"); ok && attrsV.Kind == value.KindDict {
		for _, k := range attrsV.Dict.Keys {
			n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: k}, Value: stringify(attrsV.Dict.Index[k])})
		}
	}
	if textV, ok := v.Dict.Get("text"); ok && textV.Kind == value.KindString {
		n.Content = textV.Str
	}
	if childrenV, ok := v.Dict.Get("children"); ok && childrenV.Kind == value.KindList {
		for _, c := range childrenV.List.Items {
			cn, err := valueToXMLNode(c)
			if err != nil {
				return xmlNode{}, err
			}
			n.Children = append(n.Children, cn)
		}
	}
	return n, nil
}

func formatXML(_ value.Caller, args []value.Value) (value.Value, error) {
	n, err := valueToXMLNode(args[0])
	if err != nil {
		return value.Value{}, err
	}
	out, err := xml.MarshalIndent(n, "", "  ")
	if err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "format_xml: %v", err)
	}
	return value.Str(string(out)), nil
}

// opmlDoc/opmlOutline model the handful of OPML fields a deploy pipeline
// plausibly cares about (feed titles and URLs in a nested outline tree);
// OPML is XML underneath so this rides on the same encoding/xml path as
// xml_parse rather than a dedicated parser.
type opmlDoc struct {
	XMLName xml.Name     `xml:"opml"`
	Title   string       `xml:"head>title"`
	Body    []opmlOutline `xml:"body>outline"`
}

type opmlOutline struct {
	Text     string        `xml:"text,attr"`
	Title    string        `xml:"title,attr"`
	XMLURL   string        `xml:"xmlUrl,attr"`
	HTMLURL  string        `xml:"htmlUrl,attr"`
	Outlines []opmlOutline `xml:"outline"`
}

func opmlOutlineToValue(o opmlOutline) value.Value {
	d := value.NewDict()
	d = d.With("text", value.Str(o.Text))
	d = d.With("title", value.Str(o.Title))
	d = d.With("xml_url", value.Str(o.XMLURL))
	d = d.With("html_url", value.Str(o.HTMLURL))
	children := make([]value.Value, len(o.Outlines))
	for i, c := range o.Outlines {
		children[i] = opmlOutlineToValue(c)
	}
	d = d.With("outlines", value.List(children))
	return value.Dict(d)
}

func opmlParseString(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	var doc opmlDoc
	if err := xml.Unmarshal([]byte(args[0].Str), &doc); err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "opml_parse_string: %v", err)
	}
	outlines := make([]value.Value, len(doc.Body))
	for i, o := range doc.Body {
		outlines[i] = opmlOutlineToValue(o)
	}
	d := value.NewDict()
	d = d.With("title", value.Str(doc.Title))
	d = d.With("body", value.List(outlines))
	return value.Dict(d), nil
}

func valueToOPMLOutline(v value.Value) (opmlOutline, error) {
	if v.Kind != value.KindDict {
		return opmlOutline{}, value.TypeError("dict", v)
	}
	get := func(k string) string {
		if s, ok := v.Dict.Get(k); ok && s.Kind == value.KindString {
			return s.Str
		}
		return ""
	}
	o := opmlOutline{Text: get("text"), Title: get("title"), XMLURL: get("xml_url"), HTMLURL: get("html_url")}
	if childrenV, ok := v.Dict.Get("outlines"); ok && childrenV.Kind == value.KindList {
		for _, c := range childrenV.List.Items {
			co, err := valueToOPMLOutline(c)
			if err != nil {
				return opmlOutline{}, err
			}
			o.Outlines = append(o.Outlines, co)
		}
	}
	return o, nil
}

func formatOPML(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindDict {
		return value.Value{}, value.TypeError("dict", args[0])
	}
	doc := opmlDoc{}
	if t, ok := args[0].Dict.Get("title"); ok && t.Kind == value.KindString {
		doc.Title = t.Str
	}
	if bodyV, ok := args[0].Dict.Get("body"); ok && bodyV.Kind == value.KindList {
		for _, o := range bodyV.List.Items {
			oo, err := valueToOPMLOutline(o)
			if err != nil {
				return value.Value{}, err
			}
			doc.Body = append(doc.Body, oo)
		}
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "format_opml: %v", err)
	}
	return value.Str(xml.Header + string(out)), nil
}

// htmlNodeToValue mirrors xmlNodeToValue's shape over an *html.Node tree,
// element nodes only (comments/doctypes are skipped, text is collapsed
// into the parent's "text").
func htmlNodeToValue(n *html.Node) (value.Value, bool) {
	if n.Type != html.ElementNode {
		return value.Value{}, false
	}
	d := value.NewDict()
	d = d.With("tag", value.Str(n.Data))
	attrs := value.NewDict()
	for _, a := range n.Attr {
		attrs = attrs.With(a.Key, value.Str(a.Val))
	}
	d = d.With("attrs", value.Dict(attrs))
	var text strings.Builder
	var children []value.Value
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			text.WriteString(c.Data)
			continue
		}
		if cv, ok := htmlNodeToValue(c); ok {
			children = append(children, cv)
		}
	}
	d = d.With("text", value.Str(strings.TrimSpace(text.String())))
	d = d.With("children", value.List(children))
	return value.Dict(d), true
}

func htmlParseString(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	doc, err := html.Parse(strings.NewReader(args[0].Str))
	if err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "html_parse_string: %v", err)
	}
	var find func(*html.Node) (value.Value, bool)
	find = func(n *html.Node) (value.Value, bool) {
		if v, ok := htmlNodeToValue(n); ok {
			return v, true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if v, ok := find(c); ok {
				return v, true
			}
		}
		return value.Value{}, false
	}
	if v, ok := find(doc); ok {
		return v, nil
	}
	return value.Dict(value.NewDict()), nil
}

// formatHTML renders the {tag, attrs, text, children} shape produced by
// html_parse back to markup directly, rather than round-tripping through
// *html.Node construction: the data model is simple enough that a direct
// string builder is clearer than fighting golang.org/x/net/html's internal
// node invariants (parent pointers, namespace fields) just to call Render.
func formatHTML(_ value.Caller, args []value.Value) (value.Value, error) {
	var b strings.Builder
	var walk func(value.Value) error
	walk = func(v value.Value) error {
		if v.Kind != value.KindDict {
			return value.TypeError("dict", v)
		}
		tagV, ok := v.Dict.Get("tag")
		if !ok || tagV.Kind != value.KindString {
			return errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "format_html: node missing string \"tag\"")
		}
		b.WriteString("<" + tagV.Str)
		if attrsV, ok := v.Dict.Get("attrs"); ok && attrsV.Kind == value.KindDict {
			for _, k := range attrsV.Dict.Keys {
				b.WriteString(" " + k + "=\"" + stringify(attrsV.Dict.Index[k]) + "\"")
			}
		}
		b.WriteString(">")
		if textV, ok := v.Dict.Get("text"); ok && textV.Kind == value.KindString {
			b.WriteString(textV.Str)
		}
		if childrenV, ok := v.Dict.Get("children"); ok && childrenV.Kind == value.KindList {
			for _, c := range childrenV.List.Items {
				if err := walk(c); err != nil {
					return err
				}
			}
		}
		b.WriteString("</" + tagV.Str + ">")
		return nil
	}
	if err := walk(args[0]); err != nil {
		return value.Value{}, err
	}
	return value.Str(b.String()), nil
}

// iniParseString is a small hand-rolled reader: no INI library appears
// anywhere in the retrieval pack, and the format's quirks (section-less
// keys, comment markers varying by dialect) are shallow enough that
// reaching for an out-of-pack dependency isn't worth it here — see
// DESIGN.md.
func iniParseString(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	root := value.NewDict()
	section := value.NewDict()
	sectionName := ""
	flush := func() {
		if sectionName == "" && len(section.Keys) == 0 {
			return
		}
		root = root.With(sectionName, value.Dict(section))
	}
	for _, line := range strings.Split(args[0].Str, "\n") {
		l := strings.TrimSpace(line)
		if l == "" || strings.HasPrefix(l, ";") || strings.HasPrefix(l, "#") {
			continue
		}
		if strings.HasPrefix(l, "[") && strings.HasSuffix(l, "]") {
			flush()
			sectionName = strings.TrimSpace(l[1 : len(l)-1])
			section = value.NewDict()
			continue
		}
		k, v, ok := strings.Cut(l, "=")
		if !ok {
			continue
		}
		section = section.With(strings.TrimSpace(k), value.Str(strings.TrimSpace(v)))
	}
	flush()
	return value.Dict(root), nil
}

func formatINI(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindDict {
		return value.Value{}, value.TypeError("dict of dicts", args[0])
	}
	var sb strings.Builder
	for _, sectionName := range args[0].Dict.Keys {
		section, _ := args[0].Dict.Get(sectionName)
		if section.Kind != value.KindDict {
			return value.Value{}, value.TypeError("dict of dicts", section)
		}
		if sectionName != "" {
			sb.WriteString("[" + sectionName + "]\n")
		}
		for _, k := range section.Dict.Keys {
			sb.WriteString(k + " = " + stringify(section.Dict.Index[k]) + "\n")
		}
	}
	return value.Str(sb.String()), nil
}

func markdownToHTML(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	return value.Str(string(blackfriday.Run([]byte(args[0].Str)))), nil
}

func htmlText(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[0])
	}
	doc, err := html.Parse(strings.NewReader(args[0].Str))
	if err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "html_text: %v", err)
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return value.Str(sb.String()), nil
}
