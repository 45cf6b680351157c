package astdiff

import (
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

type declKind string

const (
	declFunction  declKind = "function"
	declMethod    declKind = "method"
	declClass     declKind = "class"
	declInterface declKind = "interface"
	declType      declKind = "type"
)

type decl struct {
	name      string
	qualified string
	kind      declKind
	owner     string
	body      string
	startLine int
	endLine   int
	public    bool
}

type sourceFile struct {
	decls   []decl
	imports []string
}

type extractor struct {
	dialect dialect
	content []byte
	file    *sourceFile
}

func extract(d dialect, root *sitter.Node, content []byte) *sourceFile {
	e := &extractor{dialect: d, content: content, file: &sourceFile{}}
	e.walk(root, "")
	return e.file
}

func (e *extractor) text(n *sitter.Node) string {
	return n.Content(e.content)
}

// bodyAfterName is the declaration text following its identifier, with
// whitespace collapsed, so that two declarations differing only by name
// compare equal.
func (e *extractor) bodyAfterName(n, name *sitter.Node) string {
	if name == nil || name.EndByte() > n.EndByte() {
		return strings.Join(strings.Fields(e.text(n)), " ")
	}
	return strings.Join(strings.Fields(string(e.content[name.EndByte():n.EndByte()])), " ")
}

func (e *extractor) add(n, nameNode *sitter.Node, kind declKind, owner string, public bool) {
	if nameNode == nil {
		return
	}
	name := e.text(nameNode)
	if name == "" {
		return
	}
	qualified := name
	if owner != "" {
		qualified = owner + "." + name
	}
	e.file.decls = append(e.file.decls, decl{
		name:      name,
		qualified: qualified,
		kind:      kind,
		owner:     owner,
		body:      e.bodyAfterName(n, nameNode),
		startLine: int(n.StartPoint().Row) + 1,
		endLine:   int(n.EndPoint().Row) + 1,
		public:    public,
	})
}

func (e *extractor) walk(n *sitter.Node, owner string) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		var descend bool
		switch e.dialect {
		case dialectJS:
			descend = e.visitJS(child, owner)
		case dialectPython:
			descend = e.visitPython(child, owner)
		case dialectGo:
			descend = e.visitGo(child)
		case dialectRust:
			descend = e.visitRust(child, owner)
		}
		if descend {
			e.walk(child, owner)
		}
	}
}

// visitJS handles JavaScript, TypeScript and TSX. It returns true when the
// walker should keep descending into the node.
func (e *extractor) visitJS(n *sitter.Node, owner string) bool {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		e.add(n, n.ChildByFieldName("name"), declFunction, "", true)
	case "class_declaration", "abstract_class_declaration", "class":
		name := n.ChildByFieldName("name")
		e.add(n, name, declClass, "", true)
		if body := n.ChildByFieldName("body"); body != nil && name != nil {
			e.walk(body, e.text(name))
		}
	case "method_definition", "abstract_method_signature":
		name := n.ChildByFieldName("name")
		public := jsMemberIsPublic(e, n, name)
		e.add(n, name, declMethod, owner, public)
	case "interface_declaration":
		e.add(n, n.ChildByFieldName("name"), declInterface, "", true)
	case "type_alias_declaration":
		e.add(n, n.ChildByFieldName("name"), declType, "", true)
	case "variable_declarator":
		value := n.ChildByFieldName("value")
		if value != nil && isJSFunctionValue(value.Type()) {
			e.add(n, n.ChildByFieldName("name"), declFunction, "", true)
		}
	case "import_statement":
		if src := n.ChildByFieldName("source"); src != nil {
			e.file.imports = append(e.file.imports, strings.Trim(e.text(src), `'"`))
		}
	case "statement_block", "arrow_function", "function_expression", "function":
		return false
	default:
		return true
	}
	return false
}

func isJSFunctionValue(t string) bool {
	return t == "arrow_function" || t == "function_expression" || t == "function" || t == "generator_function"
}

// jsMemberIsPublic treats members without a private or protected
// accessibility modifier, and not using a #private name, as public.
func jsMemberIsPublic(e *extractor, n, name *sitter.Node) bool {
	if name != nil && (name.Type() == "private_property_identifier" || strings.HasPrefix(e.text(name), "#")) {
		return false
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || c.Type() != "accessibility_modifier" {
			continue
		}
		switch e.text(c) {
		case "private", "protected":
			return false
		}
	}
	return true
}

func (e *extractor) visitPython(n *sitter.Node, owner string) bool {
	switch n.Type() {
	case "function_definition":
		name := n.ChildByFieldName("name")
		kind := declFunction
		if owner != "" {
			kind = declMethod
		}
		e.add(n, name, kind, owner, name != nil && pythonIsPublic(e.text(name)))
	case "class_definition":
		name := n.ChildByFieldName("name")
		e.add(n, name, declClass, "", name != nil && pythonIsPublic(e.text(name)))
		if body := n.ChildByFieldName("body"); body != nil && name != nil {
			e.walk(body, e.text(name))
		}
	case "decorated_definition":
		if def := n.ChildByFieldName("definition"); def != nil {
			e.visitPython(def, owner)
		}
	case "import_statement", "import_from_statement":
		e.file.imports = append(e.file.imports, strings.Join(strings.Fields(e.text(n)), " "))
	default:
		return true
	}
	return false
}

// pythonIsPublic follows the underscore convention; dunder methods are public.
func pythonIsPublic(name string) bool {
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return true
	}
	return !strings.HasPrefix(name, "_")
}

func (e *extractor) visitGo(n *sitter.Node) bool {
	switch n.Type() {
	case "function_declaration":
		name := n.ChildByFieldName("name")
		e.add(n, name, declFunction, "", name != nil && goIsExported(e.text(name)))
	case "method_declaration":
		name := n.ChildByFieldName("name")
		e.add(n, name, declMethod, goReceiverType(e, n.ChildByFieldName("receiver")), name != nil && goIsExported(e.text(name)))
	case "type_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			spec := n.NamedChild(i)
			if spec == nil || (spec.Type() != "type_spec" && spec.Type() != "type_alias") {
				continue
			}
			name := spec.ChildByFieldName("name")
			kind := declType
			if t := spec.ChildByFieldName("type"); t != nil {
				switch t.Type() {
				case "struct_type":
					kind = declClass
				case "interface_type":
					kind = declInterface
				}
			}
			e.add(spec, name, kind, "", name != nil && goIsExported(e.text(name)))
		}
	case "import_spec":
		if p := n.ChildByFieldName("path"); p != nil {
			e.file.imports = append(e.file.imports, strings.Trim(e.text(p), "\"`"))
		}
	case "import_declaration", "import_spec_list":
		return true
	default:
		return false
	}
	return false
}

func goIsExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// goReceiverType reduces "(s *Service[T])" to "Service".
func goReceiverType(e *extractor, receiver *sitter.Node) string {
	if receiver == nil {
		return ""
	}
	fields := strings.Fields(strings.Trim(e.text(receiver), "()"))
	if len(fields) == 0 {
		return ""
	}
	t := strings.TrimLeft(fields[len(fields)-1], "*")
	if idx := strings.IndexByte(t, '['); idx >= 0 {
		t = t[:idx]
	}
	return t
}

func (e *extractor) visitRust(n *sitter.Node, owner string) bool {
	switch n.Type() {
	case "function_item":
		kind := declFunction
		if owner != "" {
			kind = declMethod
		}
		e.add(n, n.ChildByFieldName("name"), kind, owner, rustIsPublic(n))
	case "struct_item":
		e.add(n, n.ChildByFieldName("name"), declClass, "", rustIsPublic(n))
	case "enum_item", "type_item":
		e.add(n, n.ChildByFieldName("name"), declType, "", rustIsPublic(n))
	case "trait_item":
		name := n.ChildByFieldName("name")
		e.add(n, name, declInterface, "", rustIsPublic(n))
	case "impl_item":
		if t := n.ChildByFieldName("type"); t != nil {
			if body := n.ChildByFieldName("body"); body != nil {
				e.walk(body, e.text(t))
			}
		}
	case "use_declaration":
		e.file.imports = append(e.file.imports, strings.Join(strings.Fields(e.text(n)), " "))
	case "mod_item", "declaration_list":
		return true
	default:
		return false
	}
	return false
}

func rustIsPublic(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c != nil && c.Type() == "visibility_modifier" {
			return true
		}
	}
	return false
}
