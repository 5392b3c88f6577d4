package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// wgslVertexFormats maps WGSL attribute types to vertex formats. Both the generic and the
// shorthand spellings are accepted.
var wgslVertexFormats = map[string]VertexFormat{
	"f32":       VertexFormatFloat32,
	"vec2f":     VertexFormatFloat32x2,
	"vec2<f32>": VertexFormatFloat32x2,
	"vec3f":     VertexFormatFloat32x3,
	"vec3<f32>": VertexFormatFloat32x3,
	"vec4f":     VertexFormatFloat32x4,
	"vec4<f32>": VertexFormatFloat32x4,
	"i32":       VertexFormatSint32,
	"vec2i":     VertexFormatSint32x2,
	"vec2<i32>": VertexFormatSint32x2,
	"vec3i":     VertexFormatSint32x3,
	"vec3<i32>": VertexFormatSint32x3,
	"vec4i":     VertexFormatSint32x4,
	"vec4<i32>": VertexFormatSint32x4,
	"u32":       VertexFormatUint32,
	"vec2u":     VertexFormatUint32x2,
	"vec2<u32>": VertexFormatUint32x2,
	"vec3u":     VertexFormatUint32x3,
	"vec3<u32>": VertexFormatUint32x3,
	"vec4u":     VertexFormatUint32x4,
	"vec4<u32>": VertexFormatUint32x4,
}

var (
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	locationRegex = regexp.MustCompile(`@location\(\s*(\d+)\s*\)`)

	builtinRegex = regexp.MustCompile(`@builtin\(\s*\w+\s*\)`)

	// attributeRegex matches any @name or @name(args) attribute.
	attributeRegex = regexp.MustCompile(`@\w+(?:\([^)]*\))?`)

	fieldRegex = regexp.MustCompile(`^\s*(\w+)\s*:\s*(.+?)\s*$`)

	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, name and type of
	// declarations like: @group(0) @binding(0) var<uniform> transform: Transform;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseEntryPoint returns the name of the first entry point declared for shaderType, or an empty
// string if there is none.
//
// Parameters:
//   - source: WGSL source with comments stripped
//   - shaderType: the stage to search for
//
// Returns:
//   - string: the entry point name
func parseEntryPoint(source string, shaderType ShaderType) string {
	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}
	if m := re.FindStringSubmatch(source); m != nil {
		return m[1]
	}
	return ""
}

// parseVertexInputs resolves the @location inputs of the named entry point. Inputs may be declared
// directly on parameters or as members of a struct parameter. Inputs whose type is not a valid
// vertex format are kept with VertexFormatUndefined so validation can report them.
//
// Parameters:
//   - source: WGSL source with comments stripped
//   - entry: the vertex entry point name
//
// Returns:
//   - []VertexInput: the inputs sorted by location
func parseVertexInputs(source, entry string) []VertexInput {
	params, ok := entryParams(source, entry)
	if !ok {
		return nil
	}

	structs := make(map[string]parsedStruct)
	for _, ps := range parseStructBlocks(source) {
		structs[ps.name] = ps
	}

	var inputs []VertexInput
	add := func(f parsedField) {
		if f.isBuiltin || f.location < 0 {
			return
		}
		inputs = append(inputs, VertexInput{
			Name:     f.name,
			Location: uint32(f.location),
			Format:   wgslVertexFormats[f.typeName],
		})
	}

	for _, p := range parseFields(params) {
		if p.location >= 0 {
			add(p)
			continue
		}
		if ps, ok := structs[p.typeName]; ok {
			for _, f := range ps.fields {
				add(f)
			}
		}
	}

	sort.Slice(inputs, func(i, j int) bool {
		return inputs[i].Location < inputs[j].Location
	})
	return inputs
}

// parseBindings extracts every @group/@binding declaration and resolves the size of its type.
//
// Parameters:
//   - source: WGSL source with comments stripped
//
// Returns:
//   - []Binding: the declarations sorted by group then binding
func parseBindings(source string) []Binding {
	sizes := computeStructSizes(parseStructBlocks(source))

	var bindings []Binding
	for _, m := range bindGroupDeclRegex.FindAllStringSubmatch(source, -1) {
		group, _ := strconv.ParseUint(m[1], 10, 32)
		binding, _ := strconv.ParseUint(m[2], 10, 32)
		b := Binding{
			Group:        uint32(group),
			Binding:      uint32(binding),
			AddressSpace: strings.TrimSpace(m[3]),
			Name:         m[4],
			TypeName:     strings.TrimSpace(m[5]),
		}
		if layout, ok := resolveTypeLayout(b.TypeName, sizes); ok {
			b.Size = layout.size
		}
		bindings = append(bindings, b)
	}

	sort.Slice(bindings, func(i, j int) bool {
		if bindings[i].Group != bindings[j].Group {
			return bindings[i].Group < bindings[j].Group
		}
		return bindings[i].Binding < bindings[j].Binding
	})
	return bindings
}

// parseStructBlocks finds every struct block and parses its members.
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, m := range matches {
		structs = append(structs, parsedStruct{
			name:   m[1],
			fields: parseFields(m[2]),
		})
	}
	return structs
}

// parseFields parses a comma separated member or parameter list, recording @location and
// @builtin attributes.
func parseFields(body string) []parsedField {
	parts := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		f := parsedField{location: -1}
		f.isBuiltin = builtinRegex.MatchString(part)
		if m := locationRegex.FindStringSubmatch(part); m != nil {
			if loc, err := strconv.Atoi(m[1]); err == nil {
				f.location = loc
			}
		}

		m := fieldRegex.FindStringSubmatch(attributeRegex.ReplaceAllString(part, ""))
		if m == nil {
			continue
		}
		f.name = m[1]
		f.typeName = m[2]
		fields = append(fields, f)
	}
	return fields
}

// entryParams returns the raw parameter list of the named function.
func entryParams(source, name string) (string, bool) {
	re := regexp.MustCompile(`\bfn\s+` + regexp.QuoteMeta(name) + `\s*\(`)
	loc := re.FindStringIndex(source)
	if loc == nil {
		return "", false
	}

	start := loc[1]
	depth := 1
	for i := start; i < len(source); i++ {
		switch source[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return source[start:i], true
			}
		}
	}
	return "", false
}
