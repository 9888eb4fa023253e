package bsdl

// BSDLFile is a parsed description file. A file carries exactly one entity.
type BSDLFile struct {
	Entity *Entity `@@`
}

// Entity is the top-level declaration:
//
//	entity OTTAP is ... end OTTAP;
type Entity struct {
	Name    string         `KwEntity @Ident KwIs`
	Generic *GenericClause `@@?`
	Port    *PortClause    `@@?`
	Decls   []*EntityDecl  `@@*`
	EndName string         `KwEnd ( KwEntity )? @Ident? Semicolon`
}

// EntityDecl is one declaration inside the entity body.
type EntityDecl struct {
	UseClause *UseClause `  @@`
	Attribute *Attribute `| @@`
}

// GetUseClause returns the first use clause, or nil.
func (e *Entity) GetUseClause() *UseClause {
	for _, decl := range e.Decls {
		if decl.UseClause != nil {
			return decl.UseClause
		}
	}
	return nil
}

// GetAttributes returns every attribute and constant declaration in source
// order.
func (e *Entity) GetAttributes() []*Attribute {
	var attrs []*Attribute
	for _, decl := range e.Decls {
		if decl.Attribute != nil {
			attrs = append(attrs, decl.Attribute)
		}
	}
	return attrs
}

// attributeSpec returns the attribute specification with the given name.
func (e *Entity) attributeSpec(name string) *AttributeSpec {
	for _, attr := range e.GetAttributes() {
		if attr.Spec != nil && attr.Spec.Name == name {
			return attr.Spec
		}
	}
	return nil
}

// GenericClause holds the generic parameters, e.g.
// generic (PHYSICAL_PIN_MAP : string := "SIM");
type GenericClause struct {
	Generics []*Generic `KwGeneric LParen ( @@ ( Semicolon @@ )* )? RParen Semicolon`
}

type Generic struct {
	Name         string  `@Ident`
	Type         string  `Colon @( Ident | KwString | KwInteger | KwReal | KwBoolean )`
	DefaultValue *String `( Assign @@ )?`
}

// PortClause lists the device pins.
type PortClause struct {
	Ports []*Port `KwPort LParen ( @@ ( Semicolon @@ )* Semicolon? )? RParen Semicolon`
}

type Port struct {
	Name string    `@Ident`
	Mode string    `Colon @( KwIn | KwOut | KwInout | KwBuffer | KwLinkage )`
	Type *PortType `@@`
}

type PortType struct {
	Name  string     `@( KwBit | KwBitVector | KwString )`
	Range *RangeSpec `@@?`
}

// RangeSpec is a vector range such as (7 downto 0).
type RangeSpec struct {
	Start     int    `LParen @Integer`
	Direction string `@Ident`
	End       int    `@Integer RParen`
}

// UseClause names the standard package, e.g. use STD_1149_1_2001.all;
type UseClause struct {
	Package string `KwUse @Ident`
	Dot     string `Dot @( Ident | KwAll ) Semicolon`
}

// Attribute is either a constant or an attribute specification.
type Attribute struct {
	Constant *ConstantAttribute `  @@`
	Spec     *AttributeSpec     `| @@`
}

// ConstantAttribute is a constant declaration such as a PIN_MAP_STRING.
type ConstantAttribute struct {
	Name  string      `KwConstant @Ident`
	Type  string      `Colon @Ident`
	Value *Expression `Assign @@ Semicolon`
}

// AttributeSpec is an attribute specification:
//
//	attribute INSTRUCTION_LENGTH of OTTAP : entity is 5;
type AttributeSpec struct {
	Name       string      `KwAttribute @Ident`
	Of         string      `KwOf @Ident`
	EntityType string      `Colon @( Ident | KwEntity | "signal" | KwConstant )`
	Is         *Expression `KwIs @@ Semicolon`
}

// Expression is a single value or a chain of terms joined with &.
type Expression struct {
	Terms []*ExpressionTerm `@@ ( Concat @@ )*`
}

type ExpressionTerm struct {
	String  *String  `  @@`
	Integer *int     `| @Integer`
	Real    *float64 `| @Real`
	Ident   *string  `| @Ident`
	Tuple   *Tuple   `| @@`
	Boolean *bool    `| ( @KwTrue | KwFalse )`
}

// Tuple is a parenthesized value list such as (50.0e6, BOTH).
type Tuple struct {
	Values []*Expression `LParen @@ ( Comma @@ )* RParen`
}

type String struct {
	Value string `@String`
}

// GetValue returns the literal without its quotes.
func (s *String) GetValue() string {
	if len(s.Value) >= 2 && s.Value[0] == '"' && s.Value[len(s.Value)-1] == '"' {
		return s.Value[1 : len(s.Value)-1]
	}
	return s.Value
}

// GetConcatenatedString joins every string term of the expression.
func (e *Expression) GetConcatenatedString() string {
	if e == nil {
		return ""
	}
	result := ""
	for _, term := range e.Terms {
		if term.String != nil {
			result += term.String.GetValue()
		}
	}
	return result
}

// GetInteger returns the value of a single-integer expression.
func (e *Expression) GetInteger() (int, bool) {
	if e != nil && len(e.Terms) == 1 && e.Terms[0].Integer != nil {
		return *e.Terms[0].Integer, true
	}
	return 0, false
}
